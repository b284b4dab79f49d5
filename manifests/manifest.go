package manifests

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

const ManifestExtension = ".json"
const ArchiveExtension = ".zip"

// The upstream scorer writes timestamps with and without sub-second
// precision; the fraction in the layout is optional, so one layout
// accepts both forms.
const timestampLayout = "2006-01-02T15:04:05.999999Z0700"

// Manifest describes one score snapshot: when it was issued, which epoch it
// belongs to, and (indirectly) the archive of score files that goes with it.
// The payload is carried along untouched.
type Manifest struct {
	Timestamp     int64 // milliseconds, from the file name
	Epoch         int64 // milliseconds
	IssuanceDate  time.Time
	EffectiveDate time.Time
	Payload       map[string]interface{}
}

// IssuedMillis is the issuance date reduced to the same precision as the
// file-name timestamp, for the consistency check at ingest.
func (m *Manifest) IssuedMillis() int64 {
	return m.IssuanceDate.Round(time.Millisecond).UnixMilli()
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func ParseManifest(path string) (*Manifest, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read manifest")
	}

	var payload map[string]interface{}
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "cannot parse manifest")
	}

	epoch, err := timestampField(payload, "epoch")
	if err != nil {
		return nil, err
	}
	issued, err := timestampField(payload, "issuanceDate")
	if err != nil {
		return nil, err
	}
	effective, err := timestampField(payload, "effectiveDate")
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Epoch:         epoch.Round(time.Millisecond).UnixMilli(),
		IssuanceDate:  issued,
		EffectiveDate: effective,
		Payload:       payload,
	}, nil
}

func timestampField(payload map[string]interface{}, name string) (time.Time, error) {
	raw, ok := payload[name]
	if !ok {
		return time.Time{}, errors.Errorf("manifest is missing %q", name)
	}
	str, ok := raw.(string)
	if !ok {
		return time.Time{}, errors.Errorf("manifest field %q is not a string", name)
	}
	t, err := ParseTimestamp(str)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid %q timestamp", name)
	}
	return t, nil
}
