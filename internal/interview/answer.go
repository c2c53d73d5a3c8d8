package interview

// AnswerKind различает варианты AnswerPayload
type AnswerKind int

const (
	AnswerText AnswerKind = iota + 1
	AnswerAudio
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// AnswerPayload: ответ кандидата: либо аудиозапись, либо текст, но не оба сразу.
// Поля закрыты, значение создается только через AudioAnswer или TextAnswer.
type AnswerPayload struct {
	kind     AnswerKind
	audio    []byte
	mimeType string
	text     string
}

// AudioAnswer создает аудио-ответ
func AudioAnswer(data []byte, mimeType string) AnswerPayload {
	return AnswerPayload{kind: AnswerAudio, audio: data, mimeType: mimeType}
}

// TextAnswer создает текстовый ответ
func TextAnswer(text string) AnswerPayload {
	return AnswerPayload{kind: AnswerText, text: text}
}

func (a AnswerPayload) Kind() AnswerKind { return a.kind }

// Audio возвращает данные записи и mime-тип; ok=false для текстового ответа
func (a AnswerPayload) Audio() (data []byte, mimeType string, ok bool) {
	if a.kind != AnswerAudio {
		return nil, "", false
	}
	return a.audio, a.mimeType, true
}

// Text возвращает текст ответа; ok=false для аудио
func (a AnswerPayload) Text() (string, bool) {
	if a.kind != AnswerText {
		return "", false
	}
	return a.text, true
}

// IsZero сообщает, что ответ не был создан
func (a AnswerPayload) IsZero() bool {
	return a.kind == 0
}
