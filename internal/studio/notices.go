package studio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"photoanimator/internal/domain"
)

// NoticeKind identifies a user-facing outcome.
type NoticeKind string

const (
	NoticeImageLoaded      NoticeKind = "image_loaded"
	NoticeImageMissing     NoticeKind = "image_missing"
	NoticePromptMissing    NoticeKind = "prompt_missing"
	NoticeInvalidImage     NoticeKind = "invalid_image"
	NoticeInvalidSetting   NoticeKind = "invalid_setting"
	NoticeAlreadyRunning   NoticeKind = "already_running"
	NoticeVideoReady       NoticeKind = "video_ready"
	NoticeGenerationFailed NoticeKind = "generation_failed"
	NoticeDownloadStarted  NoticeKind = "download_started"
)

// Variant tells the presentation layer how loudly to show a notice.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a localised toast.
type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Variant     Variant    `json:"variant"`
	At          time.Time  `json:"at"`
}

var supportedLocales = []language.Tag{language.Russian, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale maps Accept-Language style strings or POSIX locale names
// (en_US.UTF-8) onto "ru" or "en". Anything unrecognised falls back to
// Russian.
func MatchLocale(preferred ...string) string {
	normalized := make([]string, len(preferred))
	for i, p := range preferred {
		normalized[i] = posixToBCP47(p)
	}
	_, idx := language.MatchStrings(localeMatcher, normalized...)
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// posixToBCP47 rewrites ll_CC.codeset@modifier as ll-CC. Accept-Language
// lists pass through unchanged.
func posixToBCP47(s string) string {
	if strings.ContainsAny(s, ",;") {
		return s
	}
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}

type noticeText struct {
	title       string
	description string
	variant     Variant
}

var noticeCatalog = map[string]map[NoticeKind]noticeText{
	"ru": {
		NoticeImageLoaded:      {"Фото загружено", "Настройте параметры анимации и запустите обработку", VariantDefault},
		NoticeImageMissing:     {"Загрузите фото", "Сначала выберите изображение для анимации", VariantDestructive},
		NoticePromptMissing:    {"Добавьте описание", "Опишите, что должно произойти на фото", VariantDestructive},
		NoticeInvalidImage:     {"Не удалось прочитать фото", "Поддерживаются PNG, JPG, GIF, WEBP и BMP до 10MB", VariantDestructive},
		NoticeInvalidSetting:   {"Недопустимое значение", "Параметр %s вне допустимого диапазона", VariantDestructive},
		NoticeAlreadyRunning:   {"Генерация уже идёт", "Дождитесь завершения текущей анимации", VariantDestructive},
		NoticeVideoReady:       {"Видео готово!", "Анимация создана в формате %s", VariantDefault},
		NoticeGenerationFailed: {"Не удалось создать видео", "%s. Попробуйте ещё раз", VariantDestructive},
		NoticeDownloadStarted:  {"Загрузка начата", "Видео сохраняется на ваше устройство", VariantDefault},
	},
	"en": {
		NoticeImageLoaded:      {"Photo uploaded", "Adjust the animation settings and start processing", VariantDefault},
		NoticeImageMissing:     {"Upload a photo", "Select an image to animate first", VariantDestructive},
		NoticePromptMissing:    {"Add a description", "Describe what should happen in the photo", VariantDestructive},
		NoticeInvalidImage:     {"Could not read the photo", "PNG, JPG, GIF, WEBP and BMP up to 10MB are supported", VariantDestructive},
		NoticeInvalidSetting:   {"Invalid value", "Setting %s is out of range", VariantDestructive},
		NoticeAlreadyRunning:   {"Generation in progress", "Wait for the current animation to finish", VariantDestructive},
		NoticeVideoReady:       {"Video ready!", "Animation created in %s format", VariantDefault},
		NoticeGenerationFailed: {"Could not create the video", "%s. Try again", VariantDestructive},
		NoticeDownloadStarted:  {"Download started", "The video is being saved to your device", VariantDefault},
	},
}

var failureReasons = map[string]map[error]string{
	"ru": {
		domain.ErrPipelineUnavailable: "Сервис генерации недоступен",
		domain.ErrPipelineRejected:    "Сервис отклонил запрос",
	},
	"en": {
		domain.ErrPipelineUnavailable: "The generation service is unavailable",
		domain.ErrPipelineRejected:    "The generation service rejected the request",
	},
}

// NewNotice renders the notice of the given kind. Args fill the description
// template of kinds that take one.
func NewNotice(locale string, kind NoticeKind, now time.Time, args ...any) Notice {
	texts, ok := noticeCatalog[locale]
	if !ok {
		texts = noticeCatalog["ru"]
	}
	text := texts[kind]
	description := text.description
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return Notice{
		Kind:        kind,
		Title:       text.title,
		Description: description,
		Variant:     text.variant,
		At:          now,
	}
}

func readyNotice(locale string, format domain.Format, now time.Time) Notice {
	upper := cases.Upper(language.Und).String(string(format))
	return NewNotice(locale, NoticeVideoReady, now, upper)
}

func failureNotice(locale string, err error, now time.Time) Notice {
	reasons, ok := failureReasons[locale]
	if !ok {
		reasons = failureReasons["ru"]
	}
	reason := reasons[domain.ErrPipelineUnavailable]
	if errors.Is(err, domain.ErrPipelineRejected) {
		reason = reasons[domain.ErrPipelineRejected]
	}
	return NewNotice(locale, NoticeGenerationFailed, now, reason)
}

// NoticeForError renders the notice for a rejected command. It reports false
// for errors that have no user-facing notice.
func NoticeForError(locale string, err error, now time.Time) (Notice, bool) {
	var settingErr *domain.InvalidSettingError
	switch {
	case err == nil:
		return Notice{}, false
	case errors.Is(err, domain.ErrMissingImage):
		return NewNotice(locale, NoticeImageMissing, now), true
	case errors.Is(err, domain.ErrEmptyPrompt):
		return NewNotice(locale, NoticePromptMissing, now), true
	case errors.Is(err, domain.ErrAlreadyRunning):
		return NewNotice(locale, NoticeAlreadyRunning, now), true
	case errors.As(err, &settingErr):
		return NewNotice(locale, NoticeInvalidSetting, now, settingErr.Field), true
	case errors.Is(err, domain.ErrInvalidImage), errors.Is(err, domain.ErrImageTooLarge):
		return NewNotice(locale, NoticeInvalidImage, now), true
	case errors.Is(err, domain.ErrPipelineUnavailable), errors.Is(err, domain.ErrPipelineRejected):
		return failureNotice(locale, err, now), true
	default:
		return Notice{}, false
	}
}
