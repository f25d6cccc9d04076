// This command plays a handful of searches against tictactoe and dumps the
// resulting tree to a .dot/.png pair for debugging.
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/as3richa/alpha3/game/tictactoe"
	"github.com/as3richa/alpha3/search"
	"github.com/as3richa/alpha3/treeviz"
)

var (
	simulations = flag.Int("simulations", 200, "number of select/expand cycles to run before rendering")
	dotPath     = flag.String("dot", "tree.dot", "output path for the Graphviz source")
	pngPath     = flag.String("png", "tree.png", "output path for the legend PNG")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	s := search.NewSeeded[tictactoe.State, tictactoe.Move](1.25, 19652, tictactoe.New(), -1, 1)
	for i := 0; i < *simulations; i++ {
		leaf := s.SelectLeaf()
		if !leaf.Present() {
			break
		}
		state := s.LeafState(leaf)
		over, value := state.Terminal()
		if over {
			s.ExpandLeaf(leaf, value, nil)
			continue
		}

		legal := state.LegalMoves()
		children := make([]search.ExpansionEntry[tictactoe.Move, tictactoe.State], len(legal))
		prior := 1.0 / float64(len(legal))
		for i, m := range legal {
			children[i] = search.ExpansionEntry[tictactoe.Move, tictactoe.State]{
				Move: m, State: state.Apply(m), Prior: prior,
			}
		}
		s.ExpandLeaf(leaf, 0, children)
	}

	dot, err := treeviz.DOT[tictactoe.State, tictactoe.Move](s, treeviz.Options{Name: "tictactoe"})
	if err != nil {
		log.Fatalf("cmd/treeviz: rendering DOT: %+v", err)
	}
	if err := os.WriteFile(*dotPath, []byte(dot), 0644); err != nil {
		log.Fatalf("cmd/treeviz: writing %s: %+v", *dotPath, err)
	}

	img, err := treeviz.PNG(dot, 512, 128)
	if err != nil {
		log.Fatalf("cmd/treeviz: rendering PNG: %+v", err)
	}
	f, err := os.Create(*pngPath)
	if err != nil {
		log.Fatalf("cmd/treeviz: creating %s: %+v", *pngPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("cmd/treeviz: encoding %s: %+v", *pngPath, err)
	}

	log.Printf("cmd/treeviz: wrote %s and %s", *dotPath, *pngPath)
}
