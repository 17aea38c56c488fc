package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devfolio/folio/internal/diag"
	"github.com/devfolio/folio/internal/remote"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type site struct {
	cfg   Config
	db    *sql.DB
	hub   *remote.Hub
	media *diag.Recorder

	adminToken  string
	hashingSalt string
	sendMail    func(contactMessage) error

	wg sync.WaitGroup
}

func newSite(cfg Config, db *sql.DB) (*site, error) {
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
		log.Println("WARNING: Using default admin username. Set ADMIN_USERNAME environment variable.")
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
		log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
	}

	s := &site{
		cfg:         cfg,
		db:          db,
		media:       diag.NewRecorder(db),
		adminToken:  generateAdminToken(),
		hashingSalt: generateAdminToken(),
		sendMail:    smtpMailer(cfg),
	}
	s.hub = remote.NewHub(s.media.Sink, remote.Options{
		PlayTimeout: cfg.PlayTimeout,
		QueueSize:   cfg.OutboundQueue,
	})

	if err := s.initVisitorTracking(); err != nil {
		return nil, err
	}
	if err := s.media.Init(context.Background()); err != nil {
		return nil, err
	}

	log.Printf("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		log.Printf("Admin token (dev only): %s", s.adminToken)
	}
	return s, nil
}

// wait blocks until background writes are done.
func (s *site) wait() {
	s.wg.Wait()
	s.media.Wait()
}

func (s *site) router() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.Use(s.visitorTrackingMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"aboutMeContent": AboutMe,
			"projects":       Projects,
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Len()})
	})

	// Project video controls. The page script connects here once loaded.
	r.GET("/ws", gin.WrapH(s.hub))

	r.POST("/contact", func(c *gin.Context) {
		msg := contactMessage{
			Name:    c.PostForm("fullName"),
			Email:   c.PostForm("email"),
			Message: c.PostForm("message"),
		}
		if err := msg.validate(); err != nil {
			c.HTML(http.StatusUnprocessableEntity, "contact-error.html", gin.H{
				"error": "Please fill in your name, a valid email address and a message.",
			})
			return
		}
		if err := s.sendMail(msg); err != nil {
			log.Printf("Error sending email: %v", err)
			c.HTML(http.StatusOK, "contact-error.html", gin.H{
				"error": "Sorry, there was an error sending your message. Please try again later.",
			})
			return
		}
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	})

	s.setupAdminRoutes(r)
	return r
}

func main() {
	cfg := loadConfig()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	s, err := newSite(cfg, db)
	if err != nil {
		log.Fatal("Failed to initialize site:", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanupOldData()
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen:", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	s.hub.Close()
	s.wait()
}
