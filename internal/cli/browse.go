package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/xcroster/internal/app"
	"github.com/okian/xcroster/internal/cache"
	"github.com/okian/xcroster/internal/route"
	"github.com/okian/xcroster/internal/session"
)

const browseHelp = `commands:
  <page> | #<fragment>   open a page, e.g. athletes or #results?meet=3
  back                   previous page
  search <name>          filter athletes by name (blank clears)
  refresh                refetch the data on this page
  retry                  refetch the keys that failed
  dismiss                clear notices
  login <password>       sign in
  logout                 sign out
  quit                   leave`

// browser is a line-driven session over one App. It redraws whenever the
// route, the session or the data behind the current page changes.
type browser struct {
	a        *app.App
	out      io.Writer
	st       Styles
	renderer *Renderer

	dirty   chan struct{}
	last    app.View
	unwatch []func()
}

func newBrowser(a *app.App, out io.Writer, st Styles) *browser {
	return &browser{
		a:        a,
		out:      out,
		st:       st,
		renderer: NewRenderer(st),
		dirty:    make(chan struct{}, 1),
	}
}

func (b *browser) mark() {
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	defer b.clearWatches()
	unroute := b.a.SubscribeRoute(func(route.Decision) { b.mark() })
	defer unroute()
	unsession := b.a.SubscribeSession(func(session.Session) { b.mark() })
	defer unsession()

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
	}()

	if err := b.draw(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.dirty:
			if err := b.draw(ctx); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := b.exec(ctx, strings.TrimSpace(line))
			if err != nil || quit {
				return err
			}
			if err := b.flush(ctx); err != nil {
				return err
			}
		}
	}
}

// flush draws once if anything changed while a command ran.
func (b *browser) flush(ctx context.Context) error {
	select {
	case <-b.dirty:
		return b.draw(ctx)
	default:
		return nil
	}
}

func (b *browser) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "":
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(b.out, b.st.Muted.Render(browseHelp))
	case "back":
		if !b.a.Back() {
			fmt.Fprintln(b.out, b.st.Muted.Render("no previous page"))
		}
	case "search":
		b.a.Search(arg)
		b.mark()
	case "refresh":
		b.a.Refresh(b.last.Keys...)
	case "retry":
		for k := range b.last.Errors {
			_ = b.a.Retry(ctx, k)
		}
		b.mark()
	case "dismiss":
		for _, n := range b.a.Notices().Active() {
			b.a.Notices().Dismiss(n.ID)
		}
		b.mark()
	case "login":
		if err := b.a.Login(ctx, arg); err != nil {
			fmt.Fprintln(b.out, b.st.Error.Render(err.Error()))
		}
	case "logout":
		_ = b.a.Logout(ctx)
	default:
		fragment := fragmentArg(line)
		if !route.ParseFragment(fragment).Known {
			fmt.Fprintln(b.out, b.st.Error.Render("unknown command: "+line))
			return false, nil
		}
		b.a.Navigate(fragment)
	}
	return false, ctx.Err()
}

func (b *browser) draw(ctx context.Context) error {
	v, err := b.a.Render(ctx)
	if err != nil {
		return err
	}
	b.last = v
	b.watch(v.Keys)
	fmt.Fprintln(b.out, b.st.Muted.Render("── "+b.a.Fragment()))
	return b.renderer.Render(b.out, v)
}

// watch follows keys, marking the page dirty when a fetch of one of them
// settles after the page was drawn.
func (b *browser) watch(keys []cache.Key) {
	b.clearWatches()
	for _, k := range keys {
		drawn, _ := b.a.Peek(k)
		b.unwatch = append(b.unwatch, b.a.Watch(k, func(s cache.Snapshot) {
			if s.Version > drawn.Version && !s.Loading && s.Fetched {
				b.mark()
			}
		}))
	}
}

func (b *browser) clearWatches() {
	for _, u := range b.unwatch {
		u()
	}
	b.unwatch = nil
}
