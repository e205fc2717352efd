package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/credstore"
	"github.com/suPer8Hu/legal-assistant/internal/db"
	"github.com/suPer8Hu/legal-assistant/internal/history"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/store/rabbitmq"
	"github.com/suPer8Hu/legal-assistant/internal/stream"
	"gorm.io/gorm"
)

// app carries what every command needs. Stores are opened lazily so
// commands that do not touch them work without a writable home directory.
type app struct {
	cfg config.Config
	in  *bufio.Reader
	out io.Writer
	err io.Writer
	log *logrus.Logger

	credDB *gorm.DB
	histDB *gorm.DB
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	cfg := config.Load()
	return &app{
		cfg: cfg,
		in:  bufio.NewReader(in),
		out: out,
		err: errOut,
		log: logging.NewWithOutput(cfg.LogLevel, errOut),
	}
}

func (a *app) openDB(dsn string, cached **gorm.DB) (*gorm.DB, error) {
	if *cached != nil {
		return *cached, nil
	}
	// share one connection when both stores live in the same file
	if a.credDB != nil && a.cfg.CredentialsDSN == dsn {
		*cached = a.credDB
		return a.credDB, nil
	}
	if a.histDB != nil && a.cfg.HistoryDSN == dsn {
		*cached = a.histDB
		return a.histDB, nil
	}
	gdb, err := db.Connect(dsn)
	if err != nil {
		return nil, err
	}
	*cached = gdb
	return gdb, nil
}

func (a *app) credentials() (*credstore.Store, error) {
	gdb, err := a.openDB(a.cfg.CredentialsDSN, &a.credDB)
	if err != nil {
		return nil, err
	}
	return credstore.New(gdb)
}

func (a *app) history() (*history.Repo, error) {
	gdb, err := a.openDB(a.cfg.HistoryDSN, &a.histDB)
	if err != nil {
		return nil, err
	}
	return history.NewRepo(gdb)
}

// tokens prefers LEGAL_API_TOKEN over the stored login.
func (a *app) tokens() (auth.TokenProvider, error) {
	if a.cfg.APIToken != "" {
		return auth.StaticToken(a.cfg.APIToken), nil
	}
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}
	return creds.Provider(a.cfg.APIBaseURL), nil
}

func (a *app) apiClient(authed bool) (*api.Client, error) {
	c := api.NewClient(a.cfg.APIBaseURL, nil)
	if authed {
		tp, err := a.tokens()
		if err != nil {
			return nil, err
		}
		c.Tokens = tp
	}
	return c, nil
}

func (a *app) streamClient() (*stream.Client, error) {
	tp, err := a.tokens()
	if err != nil {
		return nil, err
	}
	return stream.New(a.cfg.APIBaseURL, tp,
		stream.WithLogger(a.log),
		stream.WithStreamPath(a.cfg.StreamPath),
	), nil
}

// recorder stores transcripts locally and, with RABBIT_URL set, publishes
// them. The returned func releases the broker connection.
func (a *app) recorder(local bool) (*history.Recorder, func(), error) {
	rec := &history.Recorder{Log: a.log}
	if local {
		repo, err := a.history()
		if err != nil {
			return nil, nil, err
		}
		rec.Repo = repo
	}
	closeFn := func() {}
	if a.cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(a.cfg.RabbitURL, a.cfg.RabbitQueue)
		if err != nil {
			a.log.WithError(err).Warn("transcript publishing disabled")
		} else {
			rec.Publisher = pub
			closeFn = func() { _ = pub.Close() }
		}
	}
	return rec, closeFn, nil
}

// userID is the id sent with chat requests: the flag/env value, else the
// stored login's user.
func (a *app) userID(ctx context.Context) string {
	if a.cfg.UserID != "" {
		return a.cfg.UserID
	}
	if a.cfg.APIToken != "" {
		return ""
	}
	creds, err := a.credentials()
	if err != nil {
		return ""
	}
	c, err := creds.Load(ctx, a.cfg.APIBaseURL)
	if err != nil {
		return ""
	}
	return c.UserID
}

func (a *app) readLine(prompt string) (string, error) {
	if prompt != "" {
		_, _ = io.WriteString(a.err, prompt)
	}
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
