package main

// Project is one card of the projects section. Cards with a Video get the
// play/pause and mute controls driven over /ws.
type Project struct {
	Slug   string
	Title  string
	Blurb  string
	Stack  []string
	Video  string
	Poster string
}

var (
	AboutMe = `I build small, sturdy software: command-line tools, services that stay up,
	and the occasional website. Most projects start as a question about how something
	works and end as a tool I keep using. Outside of work I climb, cook too much,
	and take long walks with a camera.`

	Projects = []Project{
		{
			Slug:   "mailterm",
			Title:  "mailterm",
			Blurb:  `A terminal email client with fuzzy search over folders and threads, built on go-imap.`,
			Stack:  []string{"Go", "IMAP", "TUI"},
			Video:  "/static/video/mailterm.mp4",
			Poster: "/static/video/mailterm.jpg",
		},
		{
			Slug:   "tapedeck",
			Title:  "tapedeck",
			Blurb:  `A command-line music player that streams from online catalogues through mpv.`,
			Stack:  []string{"Go", "mpv", "yt-dlp"},
			Video:  "/static/video/tapedeck.mp4",
			Poster: "/static/video/tapedeck.jpg",
		},
		{
			Slug:   "gamefinder",
			Title:  "gamefinder",
			Blurb:  `Content-based game recommendations using TF-IDF and cosine similarity, with filters on reviews and ratings.`,
			Stack:  []string{"Python", "scikit-learn", "HTMX"},
			Video:  "/static/video/gamefinder.mp4",
			Poster: "/static/video/gamefinder.jpg",
		},
		{
			Slug:  "folio",
			Title: "This site",
			Blurb: `Server-rendered with Gin and HTMX. The project videos are coordinated from the server over a websocket.`,
			Stack: []string{"Go", "Gin", "SQLite"},
		},
	}
)
