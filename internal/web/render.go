package web

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"docqa/internal/helper"
	"docqa/internal/models"
	"docqa/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/index.html"))

// raw HTML in model output stays escaped: goldmark is not run with WithUnsafe
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

type pageData struct {
	View            session.View
	SidebarNotice   *session.Notice
	MainNotice      *session.Notice
	CredentialError string
	Guidance        string
	MaxUploadMB     int64
	Question        string
	Answer          *models.Answer
	AnswerHTML      template.HTML
	Elapsed         string
}

func renderMarkdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}

// newPageData places the session notice next to the form whose action
// produced it: processing results in the sidebar, everything else in main.
func newPageData(v session.View, credErr error, maxUploadMB int64) (*pageData, error) {
	data := &pageData{
		View:        v,
		Guidance:    session.GuidanceMessage,
		MaxUploadMB: maxUploadMB,
	}
	if credErr != nil {
		data.CredentialError = session.NoticeFor(credErr).Text
	}

	if !v.Notice.Empty() && v.Notice.Text != session.GuidanceMessage {
		n := v.Notice
		if n.Level == session.LevelSuccess || strings.HasPrefix(n.Text, "Please upload") {
			data.SidebarNotice = &n
		} else if credErr == nil || n.Text != data.CredentialError {
			data.MainNotice = &n
		}
	}

	if v.Answer != nil {
		body, err := renderMarkdown(v.Answer.Content)
		if err != nil {
			return nil, err
		}
		data.Question = v.Answer.Query
		data.Answer = v.Answer
		data.AnswerHTML = body
		data.Elapsed = helper.FormatElapsed(v.Answer.Elapsed)
	}
	return data, nil
}
