package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/hobosky/hobosky-go/internal/bsky"
	"github.com/hobosky/hobosky-go/internal/config"
	"github.com/hobosky/hobosky-go/internal/media"
	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/richtext"
	"github.com/hobosky/hobosky-go/internal/session"
	"github.com/hobosky/hobosky-go/internal/store"
	"github.com/hobosky/hobosky-go/internal/xrpc"
)

const usage = `usage: hobosky <command> [flags]

commands:
  login     -identifier <handle or email> [-service <url>]
  logout
  whoami
  timeline  [-limit n]
  post      -text <text> [-image <path>] [-video <path>]
  search    -q <query> [-limit n]
`

type app struct {
	cfg      *config.Config
	rpc      *xrpc.Client
	sessions *session.Manager
	api      *bsky.Client
	uploader *media.Uploader
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	setLogLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	st, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open credential store")
	}
	defer cleanup()

	rpc := xrpc.NewClient(cfg.Service)
	sessions := session.NewManager(st, rpc)
	rpc.SetAuth(sessions)

	uploader := media.NewUploader(rpc, sessions)
	uploader.SetPolling(cfg.VideoPollInterval(), cfg.VideoPollAttempts)

	a := &app{
		cfg:      cfg,
		rpc:      rpc,
		sessions: sessions,
		api:      bsky.NewClient(rpc, sessions),
		uploader: uploader,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.sessions.Logout(ctx)
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "timeline":
		return a.timeline(ctx, args)
	case "post":
		return a.post(ctx, args)
	case "search":
		return a.search(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("identifier", "", "handle or email")
	service := fs.String("service", "", "service endpoint (defaults to current)")
	fs.Parse(args)

	if *identifier == "" {
		return fmt.Errorf("-identifier is required")
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	sess, err := a.sessions.Login(ctx, *identifier, string(password), *service)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as @%s (%s)\n", sess.Handle, sess.DID)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess := a.sessions.Resume(ctx)
	if sess == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("@%s (%s)\n", sess.Handle, sess.DID)
	return nil
}

func (a *app) timeline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ExitOnError)
	limit := fs.Int("limit", 20, "posts to fetch")
	fs.Parse(args)

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	page, err := a.api.GetTimeline(ctx, "", *limit)
	if err != nil {
		return err
	}
	for _, item := range page.Feed {
		printPost(&item.Post)
	}
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	text := fs.String("text", "", "post text")
	imagePath := fs.String("image", "", "attach an image file")
	videoPath := fs.String("video", "", "attach a video file")
	fs.Parse(args)

	if *text == "" {
		return fmt.Errorf("-text is required")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	facets := richtext.DetectFacets(*text)
	facets = richtext.ResolveMentions(ctx, a.rpc, *text, facets)

	opts := &bsky.PostOpts{Facets: facets}

	if *imagePath != "" {
		blob, err := a.uploadImage(ctx, *imagePath)
		if err != nil {
			return err
		}
		opts.Embed = &model.PostEmbed{
			Type:   "app.bsky.embed.images",
			Images: []model.ImageEmbed{{Alt: "", Image: *blob}},
		}
	} else if *videoPath != "" {
		blob, err := a.uploadVideo(ctx, *videoPath)
		if err != nil {
			return err
		}
		opts.Embed = &model.PostEmbed{
			Type:  "app.bsky.embed.video",
			Video: blob,
		}
	}

	res, err := a.api.CreatePost(ctx, *text, opts)
	if err != nil {
		return err
	}
	fmt.Println(res.URI)
	return nil
}

func (a *app) uploadImage(ctx context.Context, path string) (*model.BlobRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return a.uploader.UploadBlob(ctx, data, sniffMime(path, data))
}

func (a *app) uploadVideo(ctx context.Context, path string) (*model.BlobRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	return a.uploader.UploadVideo(ctx, data, "video/mp4", func(state media.State, progress float64) {
		fmt.Fprintf(os.Stderr, "\r%s %3.0f%%", state, progress*100)
		if state == media.StateCompleted {
			fmt.Fprintln(os.Stderr)
		}
	})
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("q", "", "search query")
	limit := fs.Int("limit", 25, "posts to fetch")
	fs.Parse(args)

	if *query == "" {
		return fmt.Errorf("-q is required")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	page, err := a.api.SearchPosts(ctx, *query, "", "", *limit)
	if err != nil {
		return err
	}
	for i := range page.Posts {
		printPost(&page.Posts[i])
	}
	return nil
}

func (a *app) requireSession(ctx context.Context) error {
	if a.sessions.Resume(ctx) == nil {
		return fmt.Errorf("not logged in; run hobosky login first")
	}
	return nil
}

func printPost(post *model.PostView) {
	var record struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(post.Record, &record)
	fmt.Printf("@%s: %s\n  %s (%d likes, %d reposts)\n",
		post.Author.Handle, record.Text, post.URI, post.LikeCount, post.RepostCount)
}

func buildStore(cfg *config.Config) (store.Store, func(), error) {
	noop := func() {}

	switch {
	case cfg.RedisURL != "":
		s, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil
	case cfg.PostgresURL != "":
		s, err := store.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil
	default:
		path := cfg.SessionFile
		if path == "" {
			var err error
			path, err = store.DefaultSessionPath()
			if err != nil {
				return nil, noop, err
			}
		}
		return store.NewFileStore(path), noop, nil
	}
}

func sniffMime(path string, data []byte) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	default:
		return http.DetectContentType(data)
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
