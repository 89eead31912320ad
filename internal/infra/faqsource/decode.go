package faqsource

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

// Dataset holds the entries of every audience.
type Dataset map[faq.Audience][]faq.Entry

type payload struct {
	FAQ []faq.Entry `json:"FAQ"`
}

// DecodePayload validates and decodes a {"FAQ": [...]} document.
func DecodePayload(raw []byte) ([]faq.Entry, error) {
	if err := validateDocument(payloadSchema, gojsonschema.NewBytesLoader(raw)); err != nil {
		return nil, err
	}
	var out payload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.Wrap(faq.CodeMalformedEntry, "decode faq payload", err)
	}
	return out.FAQ, nil
}

type fileDocument struct {
	Student []faq.Entry `json:"student" yaml:"student" toml:"student"`
	Staff   []faq.Entry `json:"staff" yaml:"staff" toml:"staff"`
}

// DecodeFile decodes a dataset file. The format follows the extension: .json, .yaml/.yml or .toml.
func DecodeFile(name string, raw []byte) (Dataset, error) {
	var (
		generic map[string]any
		doc     fileDocument
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		if err = json.Unmarshal(raw, &generic); err == nil {
			err = json.Unmarshal(raw, &doc)
		}
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(raw, &generic); err == nil {
			err = yaml.Unmarshal(raw, &doc)
		}
	case ".toml":
		if err = toml.Unmarshal(raw, &generic); err == nil {
			err = toml.Unmarshal(raw, &doc)
		}
	default:
		return nil, fmt.Errorf("unsupported faq file extension %q", ext)
	}
	if err != nil {
		return nil, apperrors.Wrap(faq.CodeMalformedEntry, "decode faq file "+filepath.Base(name), err)
	}
	if generic == nil {
		generic = map[string]any{}
	}
	if err := validateDocument(fileSchema, gojsonschema.NewGoLoader(generic)); err != nil {
		return nil, err
	}
	return Dataset{
		faq.AudienceStudent: doc.Student,
		faq.AudienceStaff:   doc.Staff,
	}, nil
}
