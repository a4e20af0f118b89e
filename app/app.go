package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/debug"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/presenter"
)

// RunOptions controls the headless application lifecycle.
type RunOptions struct {
	// AutoStart begins a detection session immediately.
	AutoStart bool
	// ExitOnEnd returns from Run once a session ends because its source ran out.
	ExitOnEnd bool
	// Commands, when set, is read line by line as console commands.
	Commands io.Reader
}

// App runs the container headlessly: backend workers, the presentation
// loop, the optional metrics endpoint and MQTT connection.
type App struct {
	c *Container
}

func NewApp(c *Container) *App { return &App{c: c} }

// Run blocks until ctx is cancelled, a quit command arrives, or (with
// ExitOnEnd) the source is exhausted. Everything is shut down before it returns.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	c := a.c
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.Speech.Start()
	c.Clips.Start()
	if c.Config.Debug {
		debug.StartGoroutineLogger(ctx, 10*time.Second, c.Logger)
		debug.StartMemLogger(ctx, 10*time.Second, c.Logger)
	}
	if c.Emitter != nil {
		if err := c.Emitter.Connect(); err != nil {
			c.Logger.Warn("mqtt unavailable, alerts will not be published until it connects", "error", err)
		}
	}

	var wg sync.WaitGroup
	if addr := c.Config.Metrics.Addr; addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Logger.Info("metrics listening", "addr", addr)
			if err := c.Metrics.StartServer(ctx, addr); err != nil {
				c.Logger.Error("metrics server", "error", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Loop.Run(ctx, c.Config.PollInterval())
	}()
	if opts.Commands != nil {
		go a.readCommands(ctx, cancel, opts.Commands)
	}

	var runErr error
	if opts.AutoStart {
		runErr = c.Control.Enable(ctx)
	}
	if runErr == nil {
		a.wait(ctx, opts.ExitOnEnd)
	}

	closeErr := c.Close()
	cancel()
	wg.Wait()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// wait returns when ctx is done or, with exitOnEnd, when a session ends on its own.
func (a *App) wait(ctx context.Context, exitOnEnd bool) {
	if !exitOnEnd {
		<-ctx.Done()
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.c.Session.Done():
			if errors.Is(a.c.Session.Err(), io.EOF) {
				a.c.Logger.Info("source exhausted, exiting")
				// let the loop show the final banner and stats
				time.Sleep(2 * a.c.Config.PollInterval())
				return
			}
			// stopped by command; wait for the next session
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.c.Config.PollInterval()):
			}
		}
	}
}

func (a *App) readCommands(ctx context.Context, cancel context.CancelFunc, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		reply, err := a.c.Commands.Handle(ctx, sc.Text())
		if errors.Is(err, presenter.ErrQuit) {
			cancel()
			return
		}
		if err != nil {
			a.c.Console.ShowError(err)
			continue
		}
		a.c.Console.Reply(reply)
	}
}
