package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonRouteSwitch  ReasonCode = "route_switch"
	ReasonRouteReset   ReasonCode = "route_reset"
	ReasonRouteTimeout ReasonCode = "route_timeout"

	ReasonCaptureOpen ReasonCode = "capture_open"
	ReasonCaptureRead ReasonCode = "capture_read"

	ReasonTranscribe      ReasonCode = "transcribe"
	ReasonTranscriptEmpty ReasonCode = "transcript_empty"

	ReasonDialogHTTP    ReasonCode = "dialog_http"
	ReasonDialogDecode  ReasonCode = "dialog_decode"
	ReasonDialogTimeout ReasonCode = "dialog_timeout"

	ReasonSynthesize ReasonCode = "synthesize"
	ReasonPlayback   ReasonCode = "playback"

	ReasonInputRead ReasonCode = "input_read"
)
