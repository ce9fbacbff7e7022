package types

import "errors"

// Config holds the parameters for Backend.Attach: the scratch working
// directory holding the extracted document (database file plus loose image
// assets).
type Config struct {
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// Config validation errors.
var (
	ErrWorkDirEmpty = errors.New("work dir must not be empty")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.WorkDir == "" {
		return ErrWorkDirEmpty
	}
	return nil
}
