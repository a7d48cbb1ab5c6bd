// kernelctl is a thin headless harness around the editor kernel: it loads
// text from stdin, optionally runs a highlight processor over it, and
// prints the composed viewport as plain text — exercising the whole engine
// with no rendering backend attached.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/windoze/editor-core-go/internal/bridge"
	"github.com/windoze/editor-core-go/internal/engine/command"
	"github.com/windoze/editor-core-go/internal/engine/document"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/snapshot"
)

func main() {
	width := flag.Int("width", 80, "viewport width in cells")
	tabWidth := flag.Int("tab", 4, "tab width in cells")
	rows := flag.Int("rows", 24, "viewport rows to print")
	wrap := flag.String("wrap", "none", "wrap mode: none, word, any")
	highlight := flag.String("highlight", "", "highlight every occurrence of this string")
	insert := flag.String("insert", "", "insert this text at the caret before rendering")
	debugJSON := flag.Bool("debug-json", false, "print the insert's TextDelta and the highlight's processing edits as JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("read stdin", "err", err)
		os.Exit(1)
	}

	var mode layout.WrapMode
	switch *wrap {
	case "word":
		mode = layout.WrapWordBoundary
	case "any":
		mode = layout.WrapAnyChar
	default:
		mode = layout.WrapNone
	}

	doc := document.New(string(input),
		document.WithViewportWidth(*width),
		document.WithTabWidth(*tabWidth),
		document.WithWrapMode(mode),
	)
	logger.Info("document loaded",
		"chars", doc.CharCount(),
		"bytes", doc.ByteCount(),
		"lines", doc.GetDocumentState().LineCount,
	)

	if *insert != "" {
		res := doc.Dispatch(command.Command{Kind: command.KindInsertText, Text: *insert})
		if res.IsError() {
			logger.Error("insert failed", "err", res.Err)
			os.Exit(1)
		}
		if *debugJSON && res.Delta != nil {
			fmt.Fprintln(os.Stderr, bridge.DeltaJSON(res.Delta))
		}
	}

	if *highlight != "" {
		h := &bridge.Highlighter{Layer: 0x0100, Needle: *highlight, Style: 1}
		edits := h.Process(doc)
		doc.ApplyProcessingEdits(edits)
		if *debugJSON {
			fmt.Fprintln(os.Stderr, bridge.EditsJSON(edits))
		}
		logger.Info("highlight applied", "needle", *highlight)
	}

	res := doc.Dispatch(command.Command{Kind: command.KindGetViewport, Row: 0, Count: *rows})
	if res.IsError() || res.Grid == nil {
		logger.Error("viewport failed", "err", res.Err)
		os.Exit(1)
	}
	printGrid(os.Stdout, res.Grid)
}

func printGrid(w io.Writer, g *snapshot.Grid) {
	for _, line := range g.Lines {
		var b strings.Builder
		for i := 0; i < line.SegmentXStartCells; i++ {
			b.WriteByte(' ')
		}
		for _, c := range line.Cells {
			if c.Ch == '\t' {
				for i := 0; i < c.Width; i++ {
					b.WriteByte(' ')
				}
				continue
			}
			b.WriteRune(c.Ch)
		}
		fmt.Fprintln(w, b.String())
	}
}
