// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structural

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdf-preflight/internal/content"
)

// maxFormDepth bounds the recursion into nested form XObjects.
const maxFormDepth = 8

// fontFileKeys are the font descriptor entries that carry an embedded font program.
var fontFileKeys = []string{"FontFile", "FontFile2", "FontFile3"}

// pdfcpuDocument implements Document on top of a validated pdfcpu context.
type pdfcpuDocument struct {
	f   *os.File
	ctx *model.Context
}

// OpenPDFCPU reads, validates (relaxed) and optimizes the document at path.
func OpenPDFCPU(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &pdfcpuDocument{f: f, ctx: ctx}, nil
}

func (d *pdfcpuDocument) PageCount() int { return d.ctx.PageCount }

func (d *pdfcpuDocument) Close() error { return d.f.Close() }

func (d *pdfcpuDocument) Page(n int) (PageInfo, error) {
	pageDict, _, inherited, err := d.ctx.PageDict(n, true)
	if err != nil {
		return PageInfo{}, err
	}
	if pageDict == nil {
		return PageInfo{}, fmt.Errorf("page %d not found", n)
	}

	var resources types.Dict
	if inherited != nil {
		resources = inherited.Resources
	}

	info := PageInfo{Number: n}
	pageContent, ok := d.pageContent(n)

	// Without the content stream every XObject counts as drawn.
	var drawn map[string]bool
	if ok {
		drawn = drawnOrAll(pageContent)
	}

	w := newResourceWalk(d.ctx)
	w.walk(resources, drawn, 0)
	info.ImageCount = len(w.images) + w.directImages
	info.Fonts = w.fonts

	info.Annotations = d.annotations(pageDict)
	info.HasText = showsText(pageContent, ok, w.formContent)

	return info, nil
}

// pageContent returns the decoded page content and whether it could be read.
// A page without content streams reads as empty content.
func (d *pdfcpuDocument) pageContent(n int) ([]byte, bool) {
	r, err := pdfcpu.ExtractPageContent(d.ctx, n)
	if err != nil || r == nil {
		return nil, false
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	return data, true
}

// showsText reports whether the page or one of its drawn forms shows text.
// Unreadable page content counts as text.
func showsText(pageContent []byte, ok bool, forms [][]byte) bool {
	if !ok || content.ShowsText(pageContent) {
		return true
	}
	for _, f := range forms {
		if content.ShowsText(f) {
			return true
		}
	}
	return false
}

func (d *pdfcpuDocument) annotations(pageDict types.Dict) []Annotation {
	o, found := pageDict.Find("Annots")
	if !found {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil {
		return nil
	}

	var annots []Annotation
	for _, v := range arr {
		ad, err := d.ctx.DereferenceDict(v)
		if err != nil || ad == nil {
			continue
		}
		a := Annotation{}
		if s := ad.NameEntry("Subtype"); s != nil {
			a.Subtype = *s
		}
		if ft := ad.NameEntry("FT"); ft != nil {
			a.FieldType = *ft
		}
		if _, ok := ad.Find("URI"); ok {
			a.URI = true
		}
		if ao, ok := ad.Find("A"); ok {
			if action, err := d.ctx.DereferenceDict(ao); err == nil && action != nil {
				if s := action.NameEntry("S"); s != nil && *s == "URI" {
					a.URI = true
				}
			}
		}
		annots = append(annots, a)
	}
	return annots
}

// collectFonts records the fonts of a resource dictionary once per font object.
func (w *resourceWalk) collectFonts(resources types.Dict) {
	o, found := resources.Find("Font")
	if !found {
		return
	}
	fontDicts, err := w.ctx.DereferenceDict(o)
	if err != nil || fontDicts == nil {
		return
	}

	for _, v := range fontDicts {
		if objNr := objectNumber(v); objNr > 0 {
			if w.fontObjs[objNr] {
				continue
			}
			w.fontObjs[objNr] = true
		}
		fd, err := w.ctx.DereferenceDict(v)
		if err != nil || fd == nil {
			continue
		}
		f := Font{Embedded: w.fontEmbedded(fd)}
		if s := fd.NameEntry("BaseFont"); s != nil {
			f.Name = *s
		}
		if s := fd.NameEntry("Subtype"); s != nil {
			f.Subtype = *s
		}
		w.fonts = append(w.fonts, f)
	}
}

// fontEmbedded reports whether the font program is stored in the file.
// Type0 fonts are judged by their descendant; Type3 glyphs always are.
func (w *resourceWalk) fontEmbedded(fd types.Dict) bool {
	subtype := fd.NameEntry("Subtype")
	if subtype != nil {
		switch *subtype {
		case "Type3":
			return true
		case "Type0":
			o, found := fd.Find("DescendantFonts")
			if !found {
				return false
			}
			arr, err := w.ctx.DereferenceArray(o)
			if err != nil || len(arr) == 0 {
				return false
			}
			desc, err := w.ctx.DereferenceDict(arr[0])
			if err != nil || desc == nil {
				return false
			}
			fd = desc
		}
	}

	o, found := fd.Find("FontDescriptor")
	if !found {
		return false
	}
	descriptor, err := w.ctx.DereferenceDict(o)
	if err != nil || descriptor == nil {
		return false
	}
	for _, key := range fontFileKeys {
		if _, ok := descriptor.Find(key); ok {
			return true
		}
	}
	return false
}

// drawnOrAll returns the XObject names a content stream draws, or nil,
// meaning every XObject, when the stream cannot be parsed.
func drawnOrAll(data []byte) map[string]bool {
	drawn, err := content.DrawnXObjects(data)
	if err != nil {
		return nil
	}
	return drawn
}

// resourceWalk collects the fonts, image objects and form XObject content
// reachable from a page's resource dictionary through drawn forms.
type resourceWalk struct {
	ctx          *model.Context
	images       map[int]bool
	directImages int
	forms        map[int]bool
	formContent  [][]byte
	fonts        []Font
	fontObjs     map[int]bool
}

func newResourceWalk(ctx *model.Context) *resourceWalk {
	return &resourceWalk{
		ctx:      ctx,
		images:   make(map[int]bool),
		forms:    make(map[int]bool),
		fontObjs: make(map[int]bool),
	}
}

func (w *resourceWalk) walk(resources types.Dict, drawn map[string]bool, depth int) {
	if resources == nil || depth > maxFormDepth {
		return
	}
	w.collectFonts(resources)

	o, found := resources.Find("XObject")
	if !found {
		return
	}
	xobjects, err := w.ctx.DereferenceDict(o)
	if err != nil || xobjects == nil {
		return
	}

	for name, v := range xobjects {
		if drawn != nil && !drawn[name] {
			continue
		}
		objNr := objectNumber(v)

		sd, _, err := w.ctx.DereferenceStreamDict(v)
		if err != nil || sd == nil {
			continue
		}
		subtype := sd.NameEntry("Subtype")
		if subtype == nil {
			continue
		}

		switch *subtype {
		case "Image":
			if objNr > 0 {
				w.images[objNr] = true
			} else {
				w.directImages++
			}
		case "Form":
			if objNr > 0 {
				if w.forms[objNr] {
					continue
				}
				w.forms[objNr] = true
			}
			var formContent []byte
			if err := sd.Decode(); err == nil && len(sd.Content) > 0 {
				formContent = sd.Content
				w.formContent = append(w.formContent, formContent)
			}
			if ro, ok := sd.Find("Resources"); ok {
				if nested, err := w.ctx.DereferenceDict(ro); err == nil {
					w.walk(nested, drawnOrAll(formContent), depth+1)
				}
			}
		}
	}
}

func objectNumber(o types.Object) int {
	switch ref := o.(type) {
	case types.IndirectRef:
		return ref.ObjectNumber.Value()
	case *types.IndirectRef:
		return ref.ObjectNumber.Value()
	}
	return 0
}
