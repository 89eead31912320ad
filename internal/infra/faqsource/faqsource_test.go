package faqsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

const yamlDataset = `
student:
  - tag: location
    patterns: ["Where is your office?", "Office location"]
    responses: ["We are in ENG340A"]
staff:
  - tag: payroll
    patterns: ["When is payday?"]
    responses: ["Every second Friday"]
`

const tomlDataset = `
[[student]]
tag = "location"
patterns = ["Where is your office?"]
responses = ["We are in ENG340A"]
`

const jsonDataset = `{"student":[{"tag":"location","patterns":["Where is your office?"],"responses":["We are in ENG340A"]}]}`

func TestDecodeFileFormats(t *testing.T) {
	cases := map[string]string{
		"faq.yaml": yamlDataset,
		"faq.toml": tomlDataset,
		"faq.json": jsonDataset,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			dataset, err := DecodeFile(name, []byte(raw))
			require.NoError(t, err)
			require.Equal(t, "location", dataset[faq.AudienceStudent][0].Tag)
			require.Equal(t, []string{"We are in ENG340A"}, dataset[faq.AudienceStudent][0].Responses)
		})
	}
}

func TestDecodeFileRejectsBadDocuments(t *testing.T) {
	_, err := DecodeFile("faq.yaml", []byte("student:\n  - tag: location\n    patterns: yes\n    responses: [a]\n"))
	require.True(t, apperrors.IsCode(err, faq.CodeMalformedEntry))

	_, err = DecodeFile("faq.json", []byte(`{"alumni": []}`))
	require.True(t, apperrors.IsCode(err, faq.CodeMalformedEntry))

	_, err = DecodeFile("faq.json", []byte(`{not json`))
	require.True(t, apperrors.IsCode(err, faq.CodeMalformedEntry))

	_, err = DecodeFile("faq.csv", []byte(""))
	require.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	entries, err := DecodePayload([]byte(`{"FAQ":[{"tag":"hours","patterns":["when are you open"],"responses":["9 to 4"]}]}`))
	require.NoError(t, err)
	require.Equal(t, []faq.Entry{{Tag: "hours", Patterns: []string{"when are you open"}, Responses: []string{"9 to 4"}}}, entries)

	_, err = DecodePayload([]byte(`{"FAQ":[{"tag":"hours","patterns":["x"]}]}`))
	require.True(t, apperrors.IsCode(err, faq.CodeMalformedEntry))

	_, err = DecodePayload([]byte(`{"faq":[]}`))
	require.True(t, apperrors.IsCode(err, faq.CodeMalformedEntry))
}

func TestFileSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDataset), 0o600))
	source := NewFileSource(path, nil)

	student, err := source.Load(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Len(t, student, 1)
	staff, err := source.Load(context.Background(), faq.AudienceStaff)
	require.NoError(t, err)
	require.Equal(t, "payroll", staff[0].Tag)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), nil).Load(context.Background(), faq.AudienceStudent)
	require.Error(t, err)
}

func TestFileSourceWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDataset), 0o600))
	source := NewFileSource(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- source.Watch(ctx, 20*time.Millisecond, func() { changed <- struct{}{} })
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(yamlDataset+"\n"), 0o600)
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

type fakeFetcher struct {
	raw []byte
	err error
}

func (f fakeFetcher) FetchFAQ(context.Context, faq.Audience) ([]byte, error) {
	return f.raw, f.err
}

func TestBackendSource(t *testing.T) {
	source := NewBackendSource(fakeFetcher{raw: []byte(`{"FAQ":[{"tag":"hours","patterns":["open?"],"responses":["9 to 4"]}]}`)})
	entries, err := source.Load(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = NewBackendSource(fakeFetcher{err: errors.New("down")}).Load(context.Background(), faq.AudienceStudent)
	require.ErrorContains(t, err, "down")
}

func TestMemorySource(t *testing.T) {
	source := NewMemorySource(nil)
	entries, err := source.Load(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Empty(t, entries)

	source.Replace(faq.AudienceStudent, []faq.Entry{{Tag: "a", Patterns: []string{"b"}, Responses: []string{"c"}}})
	entries, err = source.Load(context.Background(), faq.AudienceStudent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestObjectKeyAndEndpoint(t *testing.T) {
	require.Equal(t, "faq/staff.json", ObjectKey("faq", faq.AudienceStaff))
	require.Equal(t, "student.json", ObjectKey("", faq.AudienceStudent))
	require.Equal(t, "account.r2.cloudflarestorage.com", sanitizeEndpoint("https://account.r2.cloudflarestorage.com/bucket"))
}
