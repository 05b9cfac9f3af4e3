package types

import "errors"

// ErrUnsupportedInputKind is returned by a model adapter when the selected
// model rejects multi-part (image + text) input.
var ErrUnsupportedInputKind = errors.New("model does not accept image input")
