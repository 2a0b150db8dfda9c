package model

type GenerationState int8

const (
	GenerationStateIdle = GenerationState(iota)
	GenerationStateAwaitingResponse
)

func (s GenerationState) String() string {
	switch s {
	case GenerationStateIdle:
		return "idle"
	case GenerationStateAwaitingResponse:
		return "awaitingResponse"
	default:
		return "unknown"
	}
}
