package core

import (
	"errors"
	"fmt"
)

// Model selects the provider's synthesis model.
type Model string

// Provider models.
const (
	ModelS1       Model = "s1"
	ModelSpeech16 Model = "speech-1.6"
	ModelSpeech15 Model = "speech-1.5"

	DefaultModel = ModelS1
)

// ErrUnknownModel is returned by ParseModel for unsupported identifiers.
var ErrUnknownModel = errors.New("unknown model")

// Models lists the supported models, newest first.
func Models() []Model {
	return []Model{ModelS1, ModelSpeech16, ModelSpeech15}
}

// ParseModel maps an identifier to a Model. An empty string selects DefaultModel.
func ParseModel(name string) (Model, error) {
	if name == "" {
		return DefaultModel, nil
	}

	for _, model := range Models() {
		if string(model) == name {
			return model, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
