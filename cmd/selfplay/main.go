// This command drives selfplay.Trainer from the command line: pick a game,
// play a batch of self-play episodes through a fresh dualnet.Net, and save
// the resulting checkpoint.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/as3richa/alpha3/batch"
	"github.com/as3richa/alpha3/dualnet"
	"github.com/as3richa/alpha3/game/chess"
	"github.com/as3richa/alpha3/game/tictactoe"
	"github.com/as3richa/alpha3/selfplay"
)

var (
	gameFlag       = flag.String("game", "tictactoe", "game to play: tictactoe|chess")
	movesFile      = flag.String("moves_file", "", "newline-delimited UCI move vocabulary (chess only)")
	games          = flag.Int("games", 10, "number of self-play games per call to RunEpisodes")
	evaluations    = flag.Int("evaluations", 50, "evaluator calls per move")
	checkpointPath = flag.String("checkpoint", "checkpoint", "directory to save the checkpoint into")
	resumeFromPath = flag.String("resume_from", "", "directory to load a checkpoint from before playing")
	maxExamples    = flag.Int("max_examples", 100000, "bound on the in-memory example buffer; 0 is unbounded")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	switch *gameFlag {
	case "tictactoe":
		runTicTacToe()
	case "chess":
		runChess()
	default:
		log.Fatalf("cmd/selfplay: unknown -game %q, want tictactoe or chess", *gameFlag)
	}
}

func driverConfig() batch.Config {
	return batch.Config{NEvaluations: *evaluations, CInit: 1.25, CBase: 19652}
}

func runTicTacToe() {
	actions := tictactoeActionSpace{}
	cfg := dualnet.DefaultConfig(9, actions.Size())
	net := dualnet.New[tictactoe.State, tictactoe.Move](cfg, tictactoeEncoder, actions)
	if err := net.Init(); err != nil {
		log.Fatalf("cmd/selfplay: initializing network: %+v", err)
	}

	trainer := selfplay.NewTrainer[tictactoe.State, tictactoe.Move](
		net, actions, tictactoeExampleEncoder, driverConfig(), tictactoe.New(), -1, *maxExamples, log.Default(),
	)
	runAndSave(trainer)
}

func runChess() {
	if *movesFile == "" {
		log.Fatal("cmd/selfplay: -moves_file is required for -game=chess")
	}
	actions, err := chess.LoadActionSpace(*movesFile)
	if err != nil {
		log.Fatalf("cmd/selfplay: loading action space: %+v", err)
	}

	cfg := dualnet.DefaultConfig(chessFeatures, actions.Size())
	net := dualnet.New[chess.State, chess.Move](cfg, chessEncoder, actions)
	if err := net.Init(); err != nil {
		log.Fatalf("cmd/selfplay: initializing network: %+v", err)
	}

	trainer := selfplay.NewTrainer[chess.State, chess.Move](
		net, actions, chessExampleEncoder, driverConfig(), chess.New(), chess.Move(""), *maxExamples, log.Default(),
	)
	runAndSave(trainer)
}

func runAndSave[S dualnet.GameState[S, M], M comparable](trainer *selfplay.Trainer[S, M]) {
	if *resumeFromPath != "" {
		if err := trainer.LoadCheckpoint(*resumeFromPath); err != nil {
			log.Fatalf("cmd/selfplay: loading checkpoint: %+v", err)
		}
	}

	if err := trainer.RunEpisodes(context.Background(), *games); err != nil {
		log.Printf("cmd/selfplay: some games failed to convert: %+v", err)
	}

	if err := trainer.SaveCheckpoint(*checkpointPath); err != nil {
		log.Fatalf("cmd/selfplay: saving checkpoint: %+v", err)
	}
	log.Printf("cmd/selfplay: saved checkpoint to %s", *checkpointPath)
}
