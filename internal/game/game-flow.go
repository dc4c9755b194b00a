package game

import (
	"context"
	"errors"
	"maps"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/utils"
)

// =============================================================================
// GAME FLOW - ROUND MANAGEMENT
// Everything here runs on the room worker.
// =============================================================================

func (w *roomWorker) start(req StartRequest, difficulty internal.Difficulty) (internal.GameStateData, error) {
	if w.session != nil && w.session.Phase != internal.PhaseGameOver {
		return internal.GameStateData{}, ErrGameInProgress
	}

	session, err := w.engine.store.Create(req.RoomID, req.Players, req.TotalRounds, req.RoundSeconds, difficulty)
	if err != nil {
		if w.session == nil {
			w.teardown()
		}
		return internal.GameStateData{}, err
	}
	w.session = session
	session.StartedAt = w.engine.opts.Now()
	w.advancing.Store(false)

	log.Info().
		Str("room", w.roomID).
		Int("players", len(session.Players)).
		Int("rounds", session.TotalRounds).
		Int("seconds", session.TimerSeconds).
		Str("difficulty", string(difficulty)).
		Msg("[StartGame] game started")

	w.emit(internal.EventGameStarted, internal.GameStartedData{
		RoomID:       w.roomID,
		TotalRounds:  session.TotalRounds,
		RoundSeconds: session.TimerSeconds,
		Difficulty:   difficulty,
		Players:      session.Roster(w.engine.connected(w.roomID)),
	})

	if err := w.nextTurn(); err != nil {
		return internal.GameStateData{}, err
	}
	return w.state(""), nil
}

// advance ends round and starts the next one. A request whose round no longer
// matches the session is stale and does nothing. Zero means the current round.
func (w *roomWorker) advance(round int, cause internal.RoundEndCause) {
	defer w.advancing.Store(false)

	s := w.session
	if s == nil || s.Phase == internal.PhaseGameOver {
		return
	}
	if round == 0 {
		round = s.CurrentRound
	}
	if s.CurrentRound != round {
		log.Debug().
			Str("room", w.roomID).
			Int("requested", round).
			Int("current", s.CurrentRound).
			Str("cause", string(cause)).
			Msg("[Advance] stale request dropped")
		return
	}

	// 1. Stop the old countdown before anything else is emitted
	w.engine.timers.Cancel(w.roomID)

	// 2. Close out the round
	w.recordRound(cause)
	log.Info().
		Str("room", w.roomID).
		Int("round", round).
		Str("cause", string(cause)).
		Int("correct", len(s.CorrectGuessers)).
		Msg("[Advance] round ended")

	// 3. Rotate. nextTurn fails the room itself on error
	w.nextTurn()
}

func (w *roomWorker) recordRound(cause internal.RoundEndCause) {
	s := w.session
	if s.CurrentRound < 1 || s.CurrentFlashcard == nil {
		return
	}
	stats := internal.RoundStats{
		RoundNumber:     s.CurrentRound,
		Word:            s.CurrentFlashcard.Word,
		CorrectGuessers: append([]internal.CorrectGuess(nil), s.CorrectGuessers...),
		StartedAt:       s.RoundStartedAt,
		EndedAt:         w.engine.opts.Now(),
		EndedBy:         cause,
	}
	if d := s.Drawer(); d != nil {
		stats.DrawerID = d.UserID
	}
	s.RoundStats = append(s.RoundStats, stats)
}

// nextTurn rotates the drawer and announces the round, or ends the game. Any
// error has already torn the room down when it is returned.
func (w *roomWorker) nextTurn() error {
	s := w.session

	ctx, cancel := context.WithTimeout(context.Background(), w.engine.opts.FlashcardTimeout)
	defer cancel()

	turn, err := AdvanceTurn(ctx, s, w.engine.cards, w.engine.opts.Now())
	if err != nil {
		w.fail(err)
		return err
	}
	if turn.IsGameOver {
		w.endGame()
		return nil
	}

	drawer := turn.NextPlayer
	w.drawerID.Store(drawer.UserID)
	info := internal.DrawerInfo{ID: drawer.UserID, Username: drawer.DisplayName, Team: drawer.Team}

	if turn.PreviousDrawerID != drawer.UserID {
		w.emit(internal.EventDrawerChanged, internal.DrawerChangedData{
			DrawerID: drawer.UserID,
			Username: drawer.DisplayName,
			Team:     drawer.Team,
		})
	}
	w.emit(internal.EventRoundStarted, internal.RoundStartedData{
		RoundNumber:   s.CurrentRound,
		TotalRounds:   s.TotalRounds,
		CurrentDrawer: info,
		RoundSeconds:  s.TimerSeconds,
	})

	card := s.CurrentFlashcard
	w.sendTo(drawer.UserID, internal.EventNewPrompt, internal.PromptData{
		RoomID:   w.roomID,
		Word:     card.Word,
		Hint:     card.Hint,
		ImageRef: card.ImageRef,
	})
	w.emitExcept(drawer.UserID, internal.EventPromptHint, internal.MaskedPromptData{
		RoomID:     w.roomID,
		MaskedWord: utils.GetMaskedWord(card.Word),
		Hint:       card.Hint,
	})
	w.emitPlayers()

	log.Info().
		Str("room", w.roomID).
		Int("round", s.CurrentRound).
		Str("drawer", drawer.UserID).
		Int64("flashcard", card.ID).
		Msg("[Advance] round started")

	round := s.CurrentRound
	roomID := w.roomID
	w.engine.timers.Start(roomID, round, s.TimerSeconds,
		func(secondsLeft int) {
			w.engine.emitter.Broadcast(roomID, internal.NewEnvelope(internal.EventTimerTick, internal.TimerTickData{
				SecondsLeft: secondsLeft,
				RoundNumber: round,
			}))
		},
		func() {
			w.requestAdvance(round, internal.EndedByTimer)
		},
	)
	return nil
}

func (w *roomWorker) endGame() {
	s := w.session
	w.engine.timers.Cancel(w.roomID)

	results := CalculateFinalResults(s)
	log.Info().
		Str("room", w.roomID).
		Int("rounds", results.RoundsPlayed).
		Interface("teams", results.Teams).
		Msg("[EndGame] game over")

	for _, p := range s.Players {
		log.Debug().Str("room", w.roomID).Str("player", p.UserID).Fields(utils.GetPlayerStats(p)).Msg("[EndGame] player stats")
	}

	w.emit(internal.EventGameEnded, results)
	w.teardown()
}

func (w *roomWorker) submit(playerID, text string) (SubmitResult, error) {
	s := w.session
	if s == nil {
		return SubmitResult{}, ErrNoSession
	}

	res, err := SubmitAnswer(s, playerID, text, w.engine.opts.PointsPerCorrect, w.engine.opts.Now())
	switch {
	case err == nil:
	case IsIneligible(err):
		w.sendTo(playerID, internal.EventAnswerRejected, internal.AnswerRejectedData{Reason: Reason(err)})
		return res, err
	case errors.Is(err, ErrCorruptSession):
		w.fail(err)
		return res, err
	default:
		return res, err
	}

	w.sendTo(playerID, internal.EventAnswerAccepted, internal.AnswerAcceptedData{
		Correct:   res.Correct,
		Duplicate: res.Duplicate,
		Points:    res.Points,
		Score:     res.Score,
	})
	if res.Duplicate {
		return res, nil
	}

	player := s.GetPlayer(playerID)
	if !res.Correct {
		w.emit(internal.EventGuessMessage, internal.GuessMessageData{
			PlayerID: playerID,
			Username: player.DisplayName,
			Text:     text,
		})
		return res, nil
	}

	log.Info().
		Str("room", w.roomID).
		Int("round", s.CurrentRound).
		Str("player", playerID).
		Int("position", res.Position).
		Msg("[SubmitAnswer] correct guess")

	w.emit(internal.EventCorrectAnswer, internal.CorrectAnswerData{
		PlayerID: playerID,
		Username: player.DisplayName,
		Points:   res.Points,
		Position: res.Position,
	})
	w.emitPlayers()

	if res.RoundComplete {
		w.advanceInline(s.CurrentRound, internal.EndedByAllSubmitted)
	}
	return res, nil
}

func (w *roomWorker) emitPlayers() {
	w.emit(internal.EventPlayersUpdate, internal.PlayersUpdateData{
		RoomID:  w.roomID,
		Players: w.session.Roster(w.engine.connected(w.roomID)),
	})
}

func (w *roomWorker) state(viewerID string) internal.GameStateData {
	s := w.session
	state := internal.GameStateData{
		RoomID:      w.roomID,
		Phase:       s.Phase,
		RoundNumber: s.CurrentRound,
		TotalRounds: s.TotalRounds,
		Players:     s.Roster(w.engine.connected(w.roomID)),
		Scores:      maps.Clone(s.Scores),
	}
	if d := s.Drawer(); d != nil {
		state.CurrentDrawer = &internal.DrawerInfo{ID: d.UserID, Username: d.DisplayName, Team: d.Team}
	}
	if left, ok := w.engine.timers.SecondsLeft(w.roomID); ok {
		state.SecondsLeft = left
	}
	if card := s.CurrentFlashcard; card != nil && s.IsActive() {
		state.MaskedWord = utils.GetMaskedWord(card.Word)
		state.Hint = card.Hint
		if viewerID != "" && s.IsDrawer(viewerID) {
			state.Word = card.Word
		}
	}
	return state
}

func (w *roomWorker) resync(playerID string) error {
	s := w.session
	if s == nil {
		return ErrNoSession
	}
	if s.GetPlayer(playerID) == nil {
		return ErrNotInGame
	}

	w.sendTo(playerID, internal.EventStateSync, w.state(playerID))
	if card := s.CurrentFlashcard; card != nil && s.IsActive() && s.IsDrawer(playerID) {
		w.sendTo(playerID, internal.EventNewPrompt, internal.PromptData{
			RoomID:   w.roomID,
			Word:     card.Word,
			Hint:     card.Hint,
			ImageRef: card.ImageRef,
		})
	}
	log.Debug().Str("room", w.roomID).Str("player", playerID).Msg("[Resync] state replayed")
	return nil
}
