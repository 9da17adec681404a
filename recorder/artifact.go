package recorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Artifact is the finished recording: every chunk concatenated in production
// order, with the negotiated media type. It is immutable once built and is
// superseded (released) when a new recording begins.
type Artifact struct {
	ID        string
	Data      []byte
	MIME      string
	Ext       string
	CreatedAt time.Time
}

func newArtifact(chunks []Chunk, profile Profile) *Artifact {
	var total int
	for _, c := range chunks {
		total += len(c.Data)
	}
	data := make([]byte, 0, total)
	for _, c := range chunks {
		data = append(data, c.Data...)
	}
	return &Artifact{
		ID:        uuid.NewString(),
		Data:      data,
		MIME:      profile.MIMEType,
		Ext:       profile.Ext,
		CreatedAt: time.Now(),
	}
}

// Filename is the default download name for the artifact.
func (a *Artifact) Filename() string {
	return fmt.Sprintf("recording-%d.%s", a.CreatedAt.UnixMilli(), a.Ext)
}

// Size returns the artifact's byte length. Zero is valid: a recording
// stopped before its first chunk still yields an artifact.
func (a *Artifact) Size() int {
	return len(a.Data)
}
