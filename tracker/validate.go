package tracker

import "fmt"

const (
	maxNameLen = 512
	maxURLLen  = 4096

	// MaxSources caps the number of tracked career pages.
	MaxSources = 500
)

// validateSourceInput validates a source's fields before insert or update.
func validateSourceInput(s *Source) error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(s.Name) > maxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLen)
	}
	if s.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if len(s.URL) > maxURLLen {
		return fmt.Errorf("%w: url exceeds %d characters", ErrInvalidInput, maxURLLen)
	}
	return nil
}
