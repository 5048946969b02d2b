package domain

// Validate checks that a source image and a settings draft are complete
// enough to submit. A missing image is reported before an empty prompt.
func Validate(img *ImageSource, req AnimationRequest) error {
	if img == nil || len(img.Data) == 0 {
		return ErrMissingImage
	}
	if !req.Complete() {
		return ErrEmptyPrompt
	}
	return nil
}
