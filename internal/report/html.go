package report

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/discord-day-summarizer/internal/models"
	"github.com/discord-day-summarizer/internal/summary"
)

// HTMLFormatter writes the report as a standalone styled HTML document.
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTML creates an HTML formatter.
func NewHTML() *HTMLFormatter {
	return &HTMLFormatter{tmpl: template.Must(template.New("report").Parse(htmlTemplate))}
}

type htmlChannel struct {
	Name         string
	MessageCount int
	Summary      template.HTML
}

type htmlData struct {
	Title           string
	Date            string
	ActiveChannels  int
	TotalMessages   int
	ChannelsScanned int
	Aggregate       template.HTML
	Channels        []htmlChannel
	GeneratedAt     string
}

// Format writes the report to w. Sentinel channels are counted in the stats
// but omitted from the channel sections, matching the markdown output.
func (f *HTMLFormatter) Format(w io.Writer, result models.RunResult, now time.Time) error {
	data := htmlData{
		Title:           Title(result.Window, now),
		Date:            result.Window.Start.Format("2006-01-02"),
		TotalMessages:   result.TotalMessages(),
		ChannelsScanned: len(result.Digests),
		Aggregate:       multiline(result.AggregateSummary),
		GeneratedAt:     now.Format("2006-01-02 15:04:05"),
	}

	for _, d := range result.Digests {
		if d.Summary == summary.NoBusinessSentinel {
			continue
		}
		data.ActiveChannels++
		data.Channels = append(data.Channels, htmlChannel{
			Name:         d.Channel.Name,
			MessageCount: d.MessageCount,
			Summary:      multiline(d.Summary),
		})
	}

	return f.tmpl.Execute(w, data)
}

// multiline escapes the text and turns newlines into <br>, preserving the
// pipeline's intentional <small><i> demotion markup.
func multiline(text string) template.HTML {
	// The only HTML the pipeline emits is the demotion wrapper and the
	// think tags inside it; escape everything, then restore those.
	escaped := template.HTMLEscapeString(text)
	for _, tag := range []string{"small", "i", "think"} {
		escaped = strings.ReplaceAll(escaped, "&lt;"+tag+"&gt;", "<"+tag+">")
		escaped = strings.ReplaceAll(escaped, "&lt;/"+tag+"&gt;", "</"+tag+">")
	}
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(escaped)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    line-height: 1.6; color: #e4e6ea;
    background: linear-gradient(135deg, #2f3136 0%, #36393f 100%);
    min-height: 100vh; padding: 20px;
}
.container {
    max-width: 1000px; margin: 0 auto; background: #40444b;
    border-radius: 12px; box-shadow: 0 8px 32px rgba(0,0,0,0.3); overflow: hidden;
}
.header {
    background: linear-gradient(135deg, #5865f2 0%, #4752c4 100%);
    padding: 30px; text-align: center; color: white;
}
.header h1 { font-size: 2.2em; font-weight: 600; margin-bottom: 10px; }
.header .meta { font-size: 1.1em; opacity: 0.9; }
.stats {
    display: flex; justify-content: space-around; padding: 20px;
    background: #36393f; border-bottom: 1px solid #4f545c;
}
.stat { text-align: center; }
.stat-number { font-size: 1.8em; font-weight: bold; color: #5865f2; }
.stat-label { font-size: 0.9em; color: #b9bbbe; margin-top: 5px; }
.content { padding: 30px; }
.section { margin-bottom: 30px; }
.section h2 {
    font-size: 1.5em; color: #ffffff; margin-bottom: 15px;
    padding-bottom: 10px; border-bottom: 2px solid #5865f2;
}
.executive-summary {
    background: #2f3136; padding: 20px; border-radius: 8px;
    border-left: 4px solid #5865f2; margin-bottom: 25px;
}
.channel {
    background: #36393f; margin-bottom: 20px; border-radius: 8px;
    overflow: hidden; border: 1px solid #4f545c;
}
.channel-header { background: #2f3136; padding: 15px 20px; border-bottom: 1px solid #4f545c; }
.channel-name { font-size: 1.2em; font-weight: bold; color: #5865f2; margin-bottom: 5px; }
.channel-meta { font-size: 0.9em; color: #b9bbbe; }
.channel-content { padding: 20px; line-height: 1.8; }
small { font-size: 0.7em; color: #72767d; font-style: italic; }
.footer {
    text-align: center; padding: 20px; color: #72767d;
    font-size: 0.9em; border-top: 1px solid #4f545c;
}
</style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="meta">{{.Date}}</div>
    </div>
    <div class="stats">
        <div class="stat">
            <div class="stat-number">{{.ActiveChannels}}</div>
            <div class="stat-label">Active Channels</div>
        </div>
        <div class="stat">
            <div class="stat-number">{{.TotalMessages}}</div>
            <div class="stat-label">Total Messages</div>
        </div>
        <div class="stat">
            <div class="stat-number">{{.ChannelsScanned}}</div>
            <div class="stat-label">Channels Scanned</div>
        </div>
    </div>
    <div class="content">
        <div class="section">
            <h2>Executive Summary</h2>
            <div class="executive-summary">{{.Aggregate}}</div>
        </div>
        <div class="section">
            <h2>Channel Details</h2>
            {{range .Channels}}
            <div class="channel">
                <div class="channel-header">
                    <div class="channel-name">#{{.Name}}</div>
                    <div class="channel-meta">{{.MessageCount}} messages analyzed</div>
                </div>
                <div class="channel-content">{{.Summary}}</div>
            </div>
            {{end}}
        </div>
    </div>
    <div class="footer">Generated by Discord Day Summarizer &bull; {{.GeneratedAt}}</div>
</div>
</body>
</html>
`
