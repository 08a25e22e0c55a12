// Package dashboard serves the play-history analytics over HTTP: a
// small HTML page for humans and JSON endpoints for everything else.
package dashboard

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"quaver/internal/history"
	"quaver/internal/version"
	"quaver/pkg/util"
)

const (
	recentLimit   = 50
	topSongsLimit = 20
)

type Server struct {
	store *history.Store
}

func NewServer(store *history.Store) *Server {
	return &Server{store: store}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", s.indexHandler)
	r.GET("/api/recent", s.recentHandler)
	r.GET("/api/top-songs", s.topSongsHandler)
	r.GET("/api/top-guilds", s.topGuildsHandler)
	r.GET("/chart", s.chartHandler)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.AppVersion})
	})
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) indexHandler(c *gin.Context) {
	recent, err := s.store.Recent(recentLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "history unavailable: %v", err)
		return
	}
	top, err := s.store.TopSongs(topSongsLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "history unavailable: %v", err)
		return
	}

	type row struct {
		Song     string
		Guild    string
		Duration string
		When     string
	}
	rows := make([]row, 0, len(recent))
	for _, p := range recent {
		rows = append(rows, row{
			Song:     p.Song,
			Guild:    p.GuildName,
			Duration: util.FormatDuration(p.Duration),
			When:     p.PlayedAt.Format("2006-01-02 15:04"),
		})
	}

	c.HTML(http.StatusOK, "index", gin.H{
		"App":    version.AppName,
		"Recent": rows,
		"Top":    top,
	})
}

func (s *Server) recentHandler(c *gin.Context) {
	plays, err := s.store.Recent(recentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plays)
}

func (s *Server) topSongsHandler(c *gin.Context) {
	top, err := s.store.TopSongs(topSongsLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, top)
}

func (s *Server) topGuildsHandler(c *gin.Context) {
	top, err := s.store.TopGuilds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, top)
}

// chartHandler renders top songs and top guilds side by side as CSS
// bar charts, scaled against the busiest row.
func (s *Server) chartHandler(c *gin.Context) {
	songs, err := s.store.TopSongs(topSongsLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "history unavailable: %v", err)
		return
	}
	guilds, err := s.store.TopGuilds()
	if err != nil {
		c.String(http.StatusInternalServerError, "history unavailable: %v", err)
		return
	}

	type bar struct {
		Label string
		Plays int
		Width int
	}
	scale := func(plays, max int) int {
		if max == 0 {
			return 0
		}
		return plays * 100 / max
	}

	songBars := make([]bar, 0, len(songs))
	maxSongs := 0
	for _, sc := range songs {
		if sc.Plays > maxSongs {
			maxSongs = sc.Plays
		}
	}
	for _, sc := range songs {
		songBars = append(songBars, bar{Label: sc.Song, Plays: sc.Plays, Width: scale(sc.Plays, maxSongs)})
	}

	guildBars := make([]bar, 0, len(guilds))
	maxGuilds := 0
	for _, gc := range guilds {
		if gc.Plays > maxGuilds {
			maxGuilds = gc.Plays
		}
	}
	for _, gc := range guilds {
		label := gc.GuildName
		if label == "" {
			label = gc.GuildID
		}
		guildBars = append(guildBars, bar{Label: label, Plays: gc.Plays, Width: scale(gc.Plays, maxGuilds)})
	}

	c.HTML(http.StatusOK, "chart", gin.H{
		"App":    version.AppName,
		"Songs":  songBars,
		"Guilds": guildBars,
	})
}

var pageTemplate = func() *template.Template {
	t := template.Must(template.New("index").Parse(indexHTML))
	template.Must(t.New("chart").Parse(chartHTML))
	return t
}()

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>{{.App}} stats</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #14151a; color: #e6e6e6; }
h1, h2 { color: #8fa3ff; }
table { border-collapse: collapse; margin-bottom: 2em; }
td, th { padding: 4px 12px; border-bottom: 1px solid #2a2c33; text-align: left; }
</style>
</head>
<body>
<h1>{{.App}} play history</h1>
<h2>Top songs</h2>
<table>
<tr><th>Song</th><th>Plays</th></tr>
{{range .Top}}<tr><td>{{.Song}}</td><td>{{.Plays}}</td></tr>
{{end}}
</table>
<h2>Recent plays</h2>
<table>
<tr><th>Song</th><th>Server</th><th>Length</th><th>Played</th></tr>
{{range .Recent}}<tr><td>{{.Song}}</td><td>{{.Guild}}</td><td>{{.Duration}}</td><td>{{.When}}</td></tr>
{{end}}
</table>
</body>
</html>
`

const chartHTML = `<!DOCTYPE html>
<html>
<head>
<title>{{.App}} charts</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #14151a; color: #e6e6e6; }
h1, h2 { color: #8fa3ff; }
.bar { background: #5c7cfa; height: 18px; display: inline-block; vertical-align: middle; }
.row { margin: 4px 0; }
.label { display: inline-block; width: 20em; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; vertical-align: middle; }
</style>
</head>
<body>
<h1>{{.App}} charts</h1>
<h2>Top songs</h2>
{{range .Songs}}<div class="row"><span class="label">{{.Label}}</span><span class="bar" style="width: {{.Width}}%;"></span> {{.Plays}}</div>
{{end}}
<h2>Top servers</h2>
{{range .Guilds}}<div class="row"><span class="label">{{.Label}}</span><span class="bar" style="width: {{.Width}}%;"></span> {{.Plays}}</div>
{{end}}
</body>
</html>
`
