package confloader

import "errors"

// errNoBytes is returned by defaults.ReadBytes; koanf calls Read for
// providers loaded without a parser.
var errNoBytes = errors.New("confloader: in-memory values have no byte form")

// defaults feeds an in-memory tree, typically built-in settings, into koanf.
type defaults map[string]any

func (d defaults) ReadBytes() ([]byte, error) { return nil, errNoBytes }

func (d defaults) Read() (map[string]any, error) { return d, nil }
