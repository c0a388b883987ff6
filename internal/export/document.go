package export

import (
	"encoding/json"

	"github.com/ppiankov/govsift/internal/model"
)

// Document is the nested structured form of a finished survey: the closed
// run summary plus every signal it produced. The surrounding I/O layer
// decides where the bytes go.
type Document struct {
	Run     *model.SamplingRun `json:"run"`
	Signals []model.Signal     `json:"signals"`
}

// Marshal renders the document as indented JSON
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument parses a previously marshaled document
func UnmarshalDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
