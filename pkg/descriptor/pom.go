// Package descriptor reads project identity from Maven build descriptors.
package descriptor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxDescriptorSize bounds how much of a descriptor is read.
const maxDescriptorSize = 1 << 20

// ErrNoIdentity is returned when a descriptor declares neither a name nor an artifactId.
var ErrNoIdentity = errors.New("descriptor declares neither name nor artifactId")

// POM holds the identity fields of a Maven project object model.
// Only direct children of <project> are read, as Maven itself does.
type POM struct {
	XMLName    xml.Name `xml:"project"`
	Name       string   `xml:"name"`
	ArtifactID string   `xml:"artifactId"`
	GroupID    string   `xml:"groupId"`
}

// ProjectName returns the display name, or the artifactId if no name is
// declared (default Maven behaviour).
func (p *POM) ProjectName() (string, error) {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name, nil
	}
	if id := strings.TrimSpace(p.ArtifactID); id != "" {
		return id, nil
	}
	return "", ErrNoIdentity
}

// Parse decodes a POM from r.
func Parse(r io.Reader) (*POM, error) {
	var pom POM
	dec := xml.NewDecoder(io.LimitReader(r, maxDescriptorSize))
	if err := dec.Decode(&pom); err != nil {
		return nil, fmt.Errorf("decoding pom: %w", err)
	}
	return &pom, nil
}

// Read parses the POM file at path.
func Read(path string) (*POM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pom: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ReadProjectName returns the project name declared by the POM at path.
func ReadProjectName(path string) (string, error) {
	pom, err := Read(path)
	if err != nil {
		return "", err
	}
	return pom.ProjectName()
}
