package models

import (
	"encoding/json"
	"errors"
)

// Decoding here fails closed: records that do not look like a Project are
// treated as absent rather than raised into calling code.

var errBadShape = errors.New("record is not a project")

// DecodeProject parses a single serialized project, rejecting records whose
// shape is wrong (missing id, phase out of range). JSON type mismatches are
// rejected by the decoder itself.
func DecodeProject(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errBadShape
	}
	if p.CurrentPhase < PhaseDiscovery || p.CurrentPhase > PhaseExport {
		return nil, errBadShape
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		// Repository-written records always satisfy this; anything else was
		// tampered with or corrupted.
		return nil, errBadShape
	}
	return &p, nil
}

// DecodeProjects parses the stored collection. A corrupt element is skipped
// (per-record isolation); only an unparseable top-level array loses the
// collection, and even then the caller gets an empty slice, never an error
// it must handle.
func DecodeProjects(data []byte) ([]Project, int) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0
	}
	projects := make([]Project, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		p, err := DecodeProject(r)
		if err != nil {
			skipped++
			continue
		}
		projects = append(projects, *p)
	}
	return projects, skipped
}

// EncodeProjects serializes the collection for storage.
func EncodeProjects(projects []Project) ([]byte, error) {
	if projects == nil {
		projects = []Project{}
	}
	return json.Marshal(projects)
}

// EncodedSize returns the serialized byte size of one project, the unit the
// quota monitor and optimizer reason in.
func EncodedSize(p *Project) int64 {
	b, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return int64(len(b))
}
