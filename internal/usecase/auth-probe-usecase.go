package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/robfig/cron/v3"
)

const authProbeTimeout = 15 * time.Second

type AuthProbeStatus struct {
	Checked   bool
	CheckedAt time.Time
	Err       error
}

// AuthProbeUsecase checks the image-generation token against the identity
// endpoint. Failures are only reported, never fatal.
type AuthProbeUsecase struct {
	cfg    config.ImageGeneration
	client *http.Client
	cron   *cron.Cron

	mu     sync.Mutex
	status AuthProbeStatus
}

func NewAuthProbeUsecase(cfg config.ImageGeneration, client *http.Client) *AuthProbeUsecase {
	if client == nil {
		client = http.DefaultClient
	}
	return &AuthProbeUsecase{
		cfg:    cfg,
		client: client,
		cron:   cron.New(cron.WithLocation(time.UTC)),
	}
}

func (a *AuthProbeUsecase) Probe(ctx context.Context) error {
	err := a.probe(ctx)
	if err != nil {
		log.Printf("image api token check failed: %v", err)
	} else {
		log.Printf("image api token works")
	}

	a.mu.Lock()
	a.status = AuthProbeStatus{Checked: true, CheckedAt: time.Now(), Err: err}
	a.mu.Unlock()
	return err
}

func (a *AuthProbeUsecase) Status() AuthProbeStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Start registers the periodic probe when a schedule is configured.
func (a *AuthProbeUsecase) Start(ctx context.Context) error {
	if a.cfg.AuthProbeSchedule == "" {
		return nil
	}
	_, err := a.cron.AddFunc(a.cfg.AuthProbeSchedule, func() {
		probeCtx, cancel := context.WithTimeout(ctx, authProbeTimeout)
		defer cancel()
		_ = a.Probe(probeCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule auth probe %q: %w", a.cfg.AuthProbeSchedule, err)
	}
	a.cron.Start()
	return nil
}

func (a *AuthProbeUsecase) Stop() {
	<-a.cron.Stop().Done()
}

func (a *AuthProbeUsecase) probe(ctx context.Context) error {
	if a.cfg.APIToken == "" {
		return model.ErrMissingCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.WhoAmIURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create whoami request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call whoami: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.NewHTTPError(resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}
