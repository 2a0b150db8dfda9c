package model

type Intent string

const (
	IntentGreeting = Intent("greeting")
	IntentGoodbye  = Intent("goodbye")
	IntentImage    = Intent("image")
	IntentThanks   = Intent("thanks")
	IntentMath     = Intent("math")
	IntentUnknown  = Intent("unknown")
)

type Reply struct {
	Intent Intent
	Text   string
	Image  *Image
}

type Image struct {
	Data        []byte
	ContentType string
	Model       string
}
