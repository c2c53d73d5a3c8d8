package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mock-interview/internal/capture"
	"mock-interview/internal/interview"
	"mock-interview/internal/session"
)

const maxAnswerLength = 4000

// console проводит сессию в терминале: команды и ответы читаются построчно
type console struct {
	ctrl    *session.Controller
	scanner *bufio.Scanner
	out     io.Writer

	// строки ввода читает отдельная горутина: чтение stdin нельзя прервать,
	// а отмена контекста должна завершать сессию сразу
	lines <-chan string

	shownRound int
}

func newConsole(ctrl *session.Controller, in io.Reader, out io.Writer) *console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &console{ctrl: ctrl, scanner: scanner, out: out, shownRound: -1}
}

// Run запускает сессию и возвращает ее итог. Конец ввода равносилен /exit.
func (c *console) Run(ctx context.Context) (session.Outcome, error) {
	if err := c.ctrl.Start(ctx); err != nil {
		return session.Outcome{}, err
	}

	stop := make(chan struct{})
	defer close(stop)
	c.lines = c.readLines(stop)

	c.printf("🎯 Тренировочное собеседование\n\n")
	c.printf("Раундов: %d, последний отвечается на втором языке.\n", interview.RoundsPerSession)
	c.printHelp()

	for !c.ctrl.State().Terminal() {
		if ctx.Err() != nil {
			c.exit(ctx)
			break
		}

		view := c.ctrl.View()
		if view.State == session.StateQuestion && view.Index != c.shownRound {
			c.showQuestion(view)
		}

		c.prompt(view.State)
		line, ok := c.readLine(ctx)
		if !ok {
			if ctx.Err() != nil {
				c.printf("\n⏹ Прервано.\n")
			}
			c.exit(ctx)
			break
		}
		c.handleInput(ctx, view.State, line)
	}

	outcome := <-c.ctrl.Done()
	c.printSummary(outcome)
	return outcome, outcome.Err
}

func (c *console) handleInput(ctx context.Context, state session.State, line string) {
	switch strings.ToLower(line) {
	case "/help":
		c.printHelp()
		return
	case "/status":
		c.printf("Состояние: %s\n", getStateDescription(state))
		return
	case "/skip":
		c.report(c.ctrl.Skip(ctx))
		return
	case "/exit":
		c.exit(ctx)
		return
	case "/record":
		c.record(ctx)
		return
	case "/text":
		if err := c.ctrl.BeginText(); err != nil {
			c.printError(err)
			return
		}
		c.printf("✍️ Введите ответ одной строкой:\n")
		return
	}

	if strings.HasPrefix(line, "/") {
		c.printf("Неизвестная команда. Используйте /help для помощи.\n")
		return
	}

	// обычный текст в состоянии вопроса — сразу текстовый ответ
	if state == session.StateQuestion {
		if line == "" {
			return
		}
		if err := c.ctrl.BeginText(); err != nil {
			c.printError(err)
			return
		}
	}
	c.answer(ctx, line)
}

func (c *console) answer(ctx context.Context, text string) {
	if err := validateUserInput(text); err != nil {
		c.printf("❌ %s\n", err)
		return
	}
	c.printf("⏳ Оцениваем ответ...\n")
	c.report(c.ctrl.SubmitText(ctx, text))
}

func (c *console) record(ctx context.Context) {
	if err := c.ctrl.BeginRecording(ctx); err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			c.printf("🎙 Микрофон недоступен. Ответьте текстом: /text\n")
			return
		}
		c.printError(err)
		return
	}

	c.printf("🔴 Запись идет. Нажмите Enter, чтобы остановить (или /skip, /exit).\n")
	line, ok := c.readLine(ctx)
	switch {
	case !ok, strings.EqualFold(line, "/exit"):
		c.exit(ctx)
		return
	case strings.EqualFold(line, "/skip"):
		c.report(c.ctrl.Skip(ctx))
		return
	}

	c.printf("⏳ Оцениваем ответ...\n")
	result, err := c.ctrl.StopRecording(ctx)
	if errors.Is(err, capture.ErrNoAudio) {
		c.printf("🔇 Ничего не записалось. Попробуйте еще раз или ответьте текстом.\n")
		return
	}
	c.report(result, err)
}

func (c *console) exit(ctx context.Context) {
	if err := c.ctrl.Exit(ctx); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
		c.printError(err)
	}
}

func (c *console) showQuestion(view session.View) {
	c.shownRound = view.Index
	label := "❓"
	if view.Round.SecondaryLanguage {
		label = "🌐"
	}
	c.printf("\n%s Вопрос %d/%d [%s]\n\n%s\n\n", label, view.Index+1, interview.RoundsPerSession,
		view.Round.Question.Category, view.Round.Text())
}

func (c *console) report(result interview.RoundResult, err error) {
	if err != nil {
		c.printError(err)
	}
	if result.QuestionID == "" {
		return
	}
	if result.Skipped {
		c.printf("⏭ Вопрос %d пропущен.\n", result.Index+1)
		return
	}
	c.printf("\n📝 Расшифровка:\n%s\n\n💬 Отзыв:\n%s\n", result.Transcription, result.Feedback)
}

func (c *console) printSummary(outcome session.Outcome) {
	switch outcome.Kind {
	case session.OutcomeCancelled:
		c.printf("\n🛑 Сессия отменена, сохранять нечего.\n")
		return
	case session.OutcomeEndedEarly:
		c.printf("\n⏹ Сессия завершена досрочно.\n")
	default:
		c.printf("\n✅ Сессия завершена!\n")
	}

	if outcome.Session != nil {
		c.printf("🆔 ID сессии: %s\n", outcome.Session.ID)
		c.printf("📋 Раундов: %d, с ответом: %d\n", len(outcome.Session.Rounds), outcome.Session.Answered())
	}
	if outcome.Err != nil {
		c.printf("⚠️ Не удалось сохранить историю: %v\n", outcome.Err)
	}
}

func (c *console) prompt(state session.State) {
	if state == session.StateAwaitingText {
		c.printf("Ваш ответ: ")
		return
	}
	c.printf("> ")
}

// readLines пересылает строки ввода в канал, пока не закрыт stop.
// Канал закрывается в конце ввода.
func (c *console) readLines(stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(c.scanner.Text()):
			case <-stop:
				return
			}
		}
	}()
	return lines
}

// readLine ждет следующую строку. false означает конец ввода или отмену
// контекста; строка, пришедшая после отмены, отбрасывается.
func (c *console) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		if !ok || ctx.Err() != nil {
			return "", false
		}
		return line, true
	}
}

func (c *console) printHelp() {
	c.printf(`Команды:
• /record — ответить голосом (Enter останавливает запись)
• /text — ответить текстом (или просто введите ответ)
• /skip — пропустить вопрос
• /status — текущее состояние
• /exit — завершить досрочно
`)
}

func (c *console) printError(err error) {
	c.printf("❌ %v\n", err)
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// validateUserInput отсекает заведомо непригодные ответы до вызова судьи
func validateUserInput(text string) error {
	if len(text) > maxAnswerLength {
		return fmt.Errorf("ответ слишком длинный (максимум %d символов)", maxAnswerLength)
	}

	// Проверка на спам/повторяющиеся символы
	if len(text) > 10 && strings.Count(text, text[:1]) > len(text)*8/10 {
		return fmt.Errorf("ответ содержит слишком много повторяющихся символов")
	}

	return nil
}

func getStateDescription(state session.State) string {
	switch state {
	case session.StateReady:
		return "Сессия не начата"
	case session.StateQuestion:
		return "Ожидание выбора: /record, /text или /skip"
	case session.StateRecording:
		return "Идет запись ответа"
	case session.StateAwaitingText:
		return "Ожидание текстового ответа"
	case session.StateProcessing:
		return "Ответ оценивается"
	case session.StateDone:
		return "Сессия завершена"
	case session.StateEarlyExit:
		return "Сессия завершена досрочно"
	default:
		return "Неизвестное состояние"
	}
}
