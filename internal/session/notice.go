package session

import (
	"errors"

	"docqa/internal/models"
)

// Level selects how a notice is shown.
type Level string

const (
	LevelNone    Level = ""
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	ReadyMessage    = "Vector Store DB is ready!"
	GuidanceMessage = "Please upload your PDF documents and click 'Process Documents' in the sidebar to get started."
)

// Notice is a user-visible status line.
type Notice struct {
	Level Level
	Text  string
}

func (n Notice) Empty() bool { return n.Text == "" }

// NoticeFor maps a failure of any action to what the user is shown.
func NoticeFor(err error) Notice {
	if err == nil {
		return Notice{}
	}
	if errors.Is(err, ErrNotReady) {
		return Notice{Level: LevelInfo, Text: GuidanceMessage}
	}
	switch models.KindOf(err) {
	case models.KindEmptyInput:
		if errors.Is(err, errNoFiles) {
			return Notice{Level: LevelError, Text: "Please upload one or more PDF files."}
		}
		return Notice{Level: LevelWarning, Text: "Please enter a question."}
	case models.KindExtraction:
		// a parser failure carries its cause, an empty result does not
		var e *models.Error
		if errors.As(err, &e) && e.Err != nil {
			return Notice{Level: LevelError, Text: "An error occurred: " + err.Error()}
		}
		return Notice{Level: LevelWarning, Text: "Could not extract text from the uploaded PDFs."}
	case models.KindMissingCredential:
		return Notice{Level: LevelError, Text: err.Error() + ". Please set it in your environment or .env file."}
	case models.KindEmbeddingService:
		return Notice{Level: LevelError, Text: "An error occurred while creating embeddings: " + err.Error()}
	case models.KindGenerationService:
		return Notice{Level: LevelError, Text: "An error occurred while generating the answer: " + err.Error()}
	default:
		return Notice{Level: LevelError, Text: "An error occurred: " + err.Error()}
	}
}
