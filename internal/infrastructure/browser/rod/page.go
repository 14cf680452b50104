package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	maxScreenshotWidth = 1024
	maxQueryResults    = 200
	maxElementText     = 200
)

var _ output.PagePort = (*PageAdapter)(nil)

// describeJS returns a unique css path for the element plus its tag and
// visible label.
const describeJS = `() => {
	const esc = (s) => (window.CSS && CSS.escape) ? CSS.escape(s) : s;
	const parts = [];
	let el = this;
	while (el && el.nodeType === 1) {
		if (el.id) { parts.unshift('#' + esc(el.id)); break; }
		let idx = 1, sib = el;
		while ((sib = sib.previousElementSibling)) {
			if (sib.tagName === el.tagName) idx++;
		}
		parts.unshift(el.tagName.toLowerCase() + ':nth-of-type(' + idx + ')');
		el = el.parentElement;
	}
	const label = this.innerText || this.value || this.getAttribute('aria-label') || this.getAttribute('title') || '';
	return {
		selector: parts.join(' > '),
		tag: this.tagName.toLowerCase(),
		text: String(label).trim().slice(0, 200),
	};
}`

const stripTargetJS = `() => {
	if (this.tagName === 'A') this.removeAttribute('target');
}`

const setValueJS = `(v) => {
	this.value = v;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return this.value === v;
}`

type PageAdapter struct {
	page    *rod.Page
	timeout time.Duration
}

// scoped binds ctx to the page, falling back to the configured timeout when
// ctx carries no deadline.
func (p *PageAdapter) scoped(ctx context.Context) *rod.Page {
	if ctx == nil {
		ctx = context.Background()
	}
	page := p.page.Context(ctx)
	if _, ok := ctx.Deadline(); !ok {
		page = page.Timeout(p.timeout)
	}
	return page
}

func (p *PageAdapter) element(ctx context.Context, selector string) (*rod.Element, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("empty selector")
	}
	page := p.scoped(ctx)
	var (
		el  *rod.Element
		err error
	)
	if isXPathSelector(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el, nil
}

func (p *PageAdapter) Goto(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	page := p.scoped(ctx)
	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (p *PageAdapter) WaitLoad(ctx context.Context) error {
	if err := p.scoped(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	// Idle is best effort; long-polling pages never settle.
	_ = p.scoped(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (p *PageAdapter) URL() string {
	info, err := p.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

func (p *PageAdapter) HTML(ctx context.Context) (string, error) {
	html, err := p.scoped(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

func (p *PageAdapter) Text(ctx context.Context) (string, error) {
	body, err := p.scoped(ctx).Element("body")
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (p *PageAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := p.scoped(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (p *PageAdapter) Query(ctx context.Context, selector string) ([]entity.ElementInfo, error) {
	page := p.scoped(ctx)
	var (
		els rod.Elements
		err error
	)
	if isXPathSelector(selector) {
		els, err = page.ElementsX(selector)
	} else {
		els, err = page.Elements(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}

	result := make([]entity.ElementInfo, 0, len(els))
	for i, el := range els {
		if i >= maxQueryResults {
			break
		}
		desc, err := el.Eval(describeJS)
		if err != nil {
			continue
		}
		visible, _ := el.Visible()
		disabled, _ := el.Disabled()

		text := desc.Value.Get("text").Str()
		if len(text) > maxElementText {
			text = text[:maxElementText]
		}
		result = append(result, entity.ElementInfo{
			Selector: desc.Value.Get("selector").Str(),
			Tag:      desc.Value.Get("tag").Str(),
			Text:     text,
			Visible:  visible,
			Enabled:  !disabled,
		})
	}
	return result, nil
}

func (p *PageAdapter) WaitVisible(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %s: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) Click(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}

	// Links that open a new tab would leave this page behind.
	if _, err := el.Eval(stripTargetJS); err != nil {
		return fmt.Errorf("prepare click %s: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	_ = p.scoped(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (p *PageAdapter) Fill(ctx context.Context, selector, value string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("field not found: %w", err)
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (p *PageAdapter) SetChecked(ctx context.Context, selector string, checked bool) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	current, err := el.Property("checked")
	if err != nil {
		return fmt.Errorf("read checked %s: %w", selector, err)
	}
	if current.Bool() == checked {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("toggle %s: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) Select(ctx context.Context, selector, value string, by output.SelectBy) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}

	switch by {
	case output.SelectByValue:
		css := fmt.Sprintf(`[value="%s"]`, strings.ReplaceAll(value, `"`, `\"`))
		err = el.Select([]string{css}, true, rod.SelectorTypeCSSSector)
	case output.SelectByLabel:
		err = el.Select([]string{value}, true, rod.SelectorTypeText)
	default:
		var res *proto.RuntimeRemoteObject
		res, err = el.Eval(setValueJS, value)
		if err == nil && !res.Value.Bool() {
			err = fmt.Errorf("value %q rejected", value)
		}
	}
	if err != nil {
		return fmt.Errorf("select %s: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) SetFiles(ctx context.Context, selector string, paths []string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SetFiles(paths); err != nil {
		return fmt.Errorf("set files %s: %w", selector, err)
	}
	return nil
}

func (p *PageAdapter) Close() error {
	return p.page.Close()
}

func isXPathSelector(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(/")
}
