package command

import (
	"fmt"

	"github.com/nzcve71300/zentro-zones/internal/storage"
	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	Path string `json:"path"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("path is required"))
	}

	return el.Err()
}

func (c *StorageConfig) BuildStore() (*storage.Store, error) {
	s, err := storage.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store at %q: %w", c.Path, err)
	}
	return s, nil
}
