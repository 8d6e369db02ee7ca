package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

const playerCookie = "player_id"

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(c domain.Cell) string { return c.String() },
		"isEmpty":    func(c domain.Cell) bool { return c == domain.Empty },
		"add":        func(a, b int) int { return a + b },
		"mul":        func(a, b int) int { return a * b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}
.cell{width:4rem;height:4rem;font-size:2rem}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-Tac-Toe</h1>
<p>You play X and move first. The computer plays O and cannot be beaten.</p>
<form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Tic-Tac-Toe</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board-slot" sse-swap="board" hx-swap="innerHTML">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `<div id="board">
  <p id="message">{{.Message}}</p>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}{{$i := add (mul $r 3) $c}}{{$cell := index $.Board $i}}
      <button class="cell" name="cell" value="{{$i}}"
        hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML"
        {{if or $.Locked (not (isEmpty $cell))}}disabled{{end}}>{{cellSymbol $cell}}</button>
    {{end}}
  </div>
  {{end}}
  <button hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML"
    {{if .Thinking}}disabled{{end}}>Restart</button>
</div>
`

// boardData feeds boardTemplate.
type boardData struct {
	ID       string
	Board    domain.Board
	Message  string
	Error    string
	Thinking bool
	Locked   bool
}

func newBoardData(gs app.GameState, errMsg string) boardData {
	return boardData{
		ID:       gs.ID,
		Board:    gs.Game.Board,
		Message:  gs.Message,
		Error:    errMsg,
		Thinking: gs.Thinking,
		Locked:   gs.Thinking || gs.Game.Over(),
	}
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: playerCookie, Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}
