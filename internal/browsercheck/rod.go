package browsercheck

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-quizdown/internal/process"
)

// DefaultTimeout bounds the load of a single page.
const DefaultTimeout = 30 * time.Second

// Compile-time interface check.
var _ PageProber = (*RodProber)(nil)

// RodProber implements PageProber with headless Chrome through go-rod.
// Rod downloads Chromium on first use if none is installed.
type RodProber struct {
	timeout  time.Duration
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodProber creates a prober; the browser starts on the first Probe.
func NewRodProber(timeout time.Duration) *RodProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RodProber{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *RodProber) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser for containers.
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// Chrome's sandbox needs privileges CI runners and containers lack.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	return nil
}

// Probe loads pageURL and reports its quiz containers.
func (r *RodProber) Probe(ctx context.Context, pageURL string) (Probe, error) {
	if err := ctx.Err(); err != nil {
		return Probe{}, err
	}
	if err := r.ensureBrowser(); err != nil {
		return Probe{}, err
	}

	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return Probe{}, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return Probe{}, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return Probe{}, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	obj, err := page.Eval(probeScript)
	if err != nil {
		return Probe{}, fmt.Errorf("%w: %v", ErrEvaluate, err)
	}

	return Probe{
		Containers: obj.Value.Get("containers").Int(),
		HasGlobal:  obj.Value.Get("global").Bool(),
	}, nil
}

// Close shuts the browser down and reaps its process tree.
func (r *RodProber) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.kill()
	return err
}

// kill terminates renderer and GPU children the browser may leave behind.
func (r *RodProber) kill() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Cleanup()
	r.launcher = nil
}
