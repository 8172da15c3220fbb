package forms

import "context"

// MailMessage is one outbound email with an attached artifact
type MailMessage struct {
	To             []string
	CC             []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer sends the artifact by email
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// ObjectUploader puts the artifact into cloud object storage and returns
// its location
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
}

// FileSaver writes the artifact to a server-side directory and returns
// the saved path
type FileSaver interface {
	Save(ctx context.Context, path string, data []byte) (string, error)
}

// ArtifactStore persists the artifact for later client download and
// returns a retrievable URI
type ArtifactStore interface {
	Store(ctx context.Context, id string, data []byte) (string, error)
}
