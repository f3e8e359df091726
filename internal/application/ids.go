package application

import "github.com/google/uuid"

// IDGen names scratch directories; swapped in tests for stable paths.
type IDGen interface{ NewID() string }

type defaultIDGen struct{}

func (defaultIDGen) NewID() string { return uuid.NewString() }
