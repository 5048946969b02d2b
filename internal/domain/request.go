package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Style enumerates the supported animation styles.
type Style string

const (
	StyleCinematic Style = "cinematic"
	StyleDynamic   Style = "dynamic"
	StyleSmooth    Style = "smooth"
	StyleDramatic  Style = "dramatic"
)

var styles = []Style{StyleCinematic, StyleDynamic, StyleSmooth, StyleDramatic}

// Styles lists every style in presentation order.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// Valid reports whether s is one of the enumerated styles.
func (s Style) Valid() bool {
	for _, candidate := range styles {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseStyle maps free-form input onto a Style.
func ParseStyle(v string) (Style, error) {
	s := Style(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", invalidSetting(FieldStyle, v)
	}
	return s, nil
}

// Format enumerates the output containers.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWEBM Format = "webm"
	FormatGIF  Format = "gif"
)

var formats = []Format{FormatMP4, FormatWEBM, FormatGIF}

// Formats lists every output format in presentation order.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// Valid reports whether f is one of the enumerated formats.
func (f Format) Valid() bool {
	for _, candidate := range formats {
		if f == candidate {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type a rendered artifact must carry.
func (f Format) ContentType() string {
	switch f {
	case FormatWEBM:
		return "video/webm"
	case FormatGIF:
		return "image/gif"
	default:
		return "video/mp4"
	}
}

// Extension returns the download file extension, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat maps free-form input onto a Format.
func ParseFormat(v string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(v)))
	if !f.Valid() {
		return "", invalidSetting(FieldFormat, v)
	}
	return f, nil
}

// Field names an editable AnimationRequest setting.
type Field string

const (
	FieldDuration  Field = "duration"
	FieldStyle     Field = "style"
	FieldIntensity Field = "intensity"
	FieldFormat    Field = "format"
	FieldPrompt    Field = "prompt"
)

// Fields lists the settings in presentation order.
func Fields() []Field {
	return []Field{FieldPrompt, FieldDuration, FieldStyle, FieldIntensity, FieldFormat}
}

// ParseField maps a setting name onto a Field.
func ParseField(v string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(v)))
	switch f {
	case FieldDuration, FieldStyle, FieldIntensity, FieldFormat, FieldPrompt:
		return f, nil
	default:
		return "", invalidSetting(Field(v), v)
	}
}

const (
	MinDuration      = 1
	MaxDuration      = 10
	MinIntensity     = 0
	MaxIntensity     = 100
	IntensityStep    = 10
	MaxPromptRunes   = 2000
	DefaultDuration  = 3
	DefaultIntensity = 50
	DefaultStyle     = StyleCinematic
	DefaultFormat    = FormatMP4
)

// AnimationRequest is the settings draft a user edits before submitting.
// Fields are only reachable through setters, so every value held is within
// bounds. Copies are independent snapshots.
type AnimationRequest struct {
	duration  int
	style     Style
	intensity int
	format    Format
	prompt    string
}

// DefaultAnimationRequest returns the initial draft: 3 s, cinematic, 50 %,
// mp4 and an empty prompt.
func DefaultAnimationRequest() AnimationRequest {
	return AnimationRequest{
		duration:  DefaultDuration,
		style:     DefaultStyle,
		intensity: DefaultIntensity,
		format:    DefaultFormat,
	}
}

// NewAnimationRequest builds a request through the bounded setters.
func NewAnimationRequest(duration int, style Style, intensity int, format Format, prompt string) (AnimationRequest, error) {
	r := DefaultAnimationRequest()
	if err := r.SetDuration(duration); err != nil {
		return AnimationRequest{}, err
	}
	if err := r.SetStyle(style); err != nil {
		return AnimationRequest{}, err
	}
	if err := r.SetIntensity(intensity); err != nil {
		return AnimationRequest{}, err
	}
	if err := r.SetFormat(format); err != nil {
		return AnimationRequest{}, err
	}
	if err := r.SetPrompt(prompt); err != nil {
		return AnimationRequest{}, err
	}
	return r, nil
}

func (r AnimationRequest) Duration() int { return r.duration }
func (r AnimationRequest) Style() Style { return r.style }
func (r AnimationRequest) Intensity() int { return r.intensity }
func (r AnimationRequest) Format() Format { return r.format }
func (r AnimationRequest) Prompt() string { return r.prompt }
func (r AnimationRequest) Complete() bool { return strings.TrimSpace(r.prompt) != "" }
func (r AnimationRequest) IsZero() bool { return r == AnimationRequest{} }

func (r *AnimationRequest) SetDuration(seconds int) error {
	if seconds < MinDuration || seconds > MaxDuration {
		return invalidSetting(FieldDuration, seconds)
	}
	r.duration = seconds
	return nil
}

func (r *AnimationRequest) SetIntensity(percent int) error {
	if percent < MinIntensity || percent > MaxIntensity || percent%IntensityStep != 0 {
		return invalidSetting(FieldIntensity, percent)
	}
	r.intensity = percent
	return nil
}

func (r *AnimationRequest) SetStyle(s Style) error {
	if !s.Valid() {
		return invalidSetting(FieldStyle, string(s))
	}
	r.style = s
	return nil
}

func (r *AnimationRequest) SetFormat(f Format) error {
	if !f.Valid() {
		return invalidSetting(FieldFormat, string(f))
	}
	r.format = f
	return nil
}

// SetPrompt accepts any text, including blank text; completeness is judged
// by the validator at submission time.
func (r *AnimationRequest) SetPrompt(prompt string) error {
	if !utf8.ValidString(prompt) || utf8.RuneCountInString(prompt) > MaxPromptRunes {
		return invalidSetting(FieldPrompt, "<prompt>")
	}
	r.prompt = prompt
	return nil
}

// Set dispatches a loosely typed value to the field setter. Numbers may be
// Go integers, integral float64 (as decoded from JSON), json.Number or
// numeric strings.
func (r *AnimationRequest) Set(field Field, value any) error {
	switch field {
	case FieldDuration:
		n, ok := asInt(value)
		if !ok {
			return invalidSetting(field, value)
		}
		return r.SetDuration(n)
	case FieldIntensity:
		n, ok := asInt(value)
		if !ok {
			return invalidSetting(field, value)
		}
		return r.SetIntensity(n)
	case FieldStyle:
		s, ok := asString(value)
		if !ok {
			return invalidSetting(field, value)
		}
		style, err := ParseStyle(s)
		if err != nil {
			return err
		}
		return r.SetStyle(style)
	case FieldFormat:
		s, ok := asString(value)
		if !ok {
			return invalidSetting(field, value)
		}
		format, err := ParseFormat(s)
		if err != nil {
			return err
		}
		return r.SetFormat(format)
	case FieldPrompt:
		s, ok := asString(value)
		if !ok {
			return invalidSetting(field, value)
		}
		return r.SetPrompt(s)
	default:
		return invalidSetting(field, value)
	}
}

type animationRequestJSON struct {
	Duration  int    `json:"duration"`
	Style     Style  `json:"style"`
	Intensity int    `json:"intensity"`
	Format    Format `json:"format"`
	Prompt    string `json:"prompt"`
}

func (r AnimationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(animationRequestJSON{
		Duration:  r.duration,
		Style:     r.style,
		Intensity: r.intensity,
		Format:    r.format,
		Prompt:    r.prompt,
	})
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case Style:
		return string(s), true
	case Format:
		return string(s), true
	default:
		return "", false
	}
}
