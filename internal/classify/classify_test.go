package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moldu/assistant/internal/types"
)

func TestClassifyBlankIsTask(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		result := Classify(msg, Context{})
		assert.Equal(t, types.TurnTask, result.Kind)
		assert.Equal(t, "blank_message", result.Rule)
	}
}

func TestClassifySmalltalk(t *testing.T) {
	cases := []string{
		"안녕",
		"안녕하세요!",
		"고마워~",
		"hello",
		"Thanks!",
		"오늘 날씨 좋네",
		"잘 지내?",
	}
	for _, msg := range cases {
		result := Classify(msg, Context{})
		assert.Equal(t, types.TurnSmalltalk, result.Kind, "message %q", msg)
	}
}

func TestClassifyTaskSignalNeverDemoted(t *testing.T) {
	// A greeting token plus a task signal is always a task.
	cases := []string{
		"안녕, 오늘 회의실 예약해줘",
		"하이 메일 요약",
		"고마워, 일정도 등록해줘",
	}
	for _, msg := range cases {
		result := Classify(msg, Context{})
		assert.Equal(t, types.TurnTask, result.Kind, "message %q", msg)
	}
}

func TestClassifyFollowupRequiresRecentContext(t *testing.T) {
	msg := "다시 요약해줘"

	withCtx := Classify(msg, Context{HasStickyContext: true})
	assert.Equal(t, types.TurnFollowupRefine, withCtx.Kind)

	withoutCtx := Classify(msg, Context{})
	assert.Equal(t, types.TurnTask, withoutCtx.Kind)
}

func TestClassifyFollowupEvidenceSources(t *testing.T) {
	msg := "간단히 정리해줘"

	assert.Equal(t, types.TurnFollowupRefine, Classify(msg, Context{CurrentMailOnly: true}).Kind)
	assert.Equal(t, types.TurnFollowupRefine, Classify(msg, Context{EmailMessageID: "m-1"}).Kind)
	assert.Equal(t, types.TurnTask, Classify(msg, Context{}).Kind)
}

func TestClassifyShortQuestionFollowup(t *testing.T) {
	result := Classify("무슨 뜻이야?", Context{HasStickyContext: true})
	assert.Equal(t, types.TurnFollowupRefine, result.Kind)
}

func TestClassifyLongMessageIsNotFollowup(t *testing.T) {
	msg := "지난 분기 전체 실적 자료를 바탕으로 상세한 보고서를 다시 작성해 주시기 바랍니다"
	result := Classify(msg, Context{HasStickyContext: true})
	assert.Equal(t, types.TurnTask, result.Kind)
}

func TestClassifyDefaultTask(t *testing.T) {
	result := Classify("프로젝트 킥오프 관련해서 온 것들 정리 부탁", Context{})
	assert.Equal(t, types.TurnTask, result.Kind)
}
