package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeyLanguage   = "language"
	KeyFilter     = "filter"
	KeyMarker     = "marker"
	KeyOffset     = "offset"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Filter(name string) slog.Attr    { return slog.String(KeyFilter, name) }
func Marker(m string) slog.Attr       { return slog.String(KeyMarker, m) }
func Offset(i int) slog.Attr          { return slog.Int(KeyOffset, i) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
