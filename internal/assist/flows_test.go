package assist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/weather"
)

// fakeModel returns a canned JSON document and records the last request.
type fakeModel struct {
	response string
	err      error
	lastReq  Request
}

func (f *fakeModel) GenerateJSON(_ context.Context, req Request, out any) error {
	f.lastReq = req
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

const pngURI = "data:image/png;base64,aGVsbG8="

func TestTranslateText(t *testing.T) {
	fm := &fakeModel{response: `{"originalLanguage":"Malayalam","en":"hello","hi":"नमस्ते","ml":"ഹലോ"}`}
	svc := NewService(fm)

	got, err := svc.TranslateText(context.Background(), "ഹലോ")
	require.NoError(t, err)
	assert.Equal(t, "Malayalam", got.OriginalLanguage)
	assert.Equal(t, "hello", got.EN)
	assert.True(t, got.Text().Complete())
	assert.Contains(t, fm.lastReq.Prompt, "ഹലോ")
}

func TestTranslateText_RejectsPartialTranslation(t *testing.T) {
	fm := &fakeModel{response: `{"originalLanguage":"English","en":"hello","hi":"","ml":"ഹലോ"}`}
	svc := NewService(fm)

	_, err := svc.TranslateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestTranslateText_EmptyInput(t *testing.T) {
	svc := NewService(&fakeModel{})
	_, err := svc.TranslateText(context.Background(), "   ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDiagnosePlant(t *testing.T) {
	fm := &fakeModel{response: `{
		"en":{"diagnosis":"Leaf blight","treatment":"Apply copper fungicide"},
		"hi":{"diagnosis":"पत्ती झुलसा","treatment":"कॉपर कवकनाशी"},
		"ml":{"diagnosis":"ഇല കരിച്ചില്","treatment":"കോപ്പര്"},
		"confidenceScore":0.85}`}
	svc := NewService(fm)

	got, err := svc.DiagnosePlant(context.Background(), pngURI, "yellow spots on leaves")
	require.NoError(t, err)
	assert.Equal(t, "Leaf blight", got.EN.Diagnosis)
	assert.InDelta(t, 0.85, got.ConfidenceScore, 1e-9)
	require.Len(t, fm.lastReq.Media, 1)
	assert.Equal(t, "image/png", fm.lastReq.Media[0].MIMEType)
	assert.Equal(t, []byte("hello"), fm.lastReq.Media[0].Data)
}

func TestDiagnosePlant_RequiresInput(t *testing.T) {
	svc := NewService(&fakeModel{})
	_, err := svc.DiagnosePlant(context.Background(), "", "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDiagnosePlant_RejectsOutOfRangeConfidence(t *testing.T) {
	fm := &fakeModel{response: `{
		"en":{"diagnosis":"a","treatment":"b"},
		"hi":{"diagnosis":"a","treatment":"b"},
		"ml":{"diagnosis":"a","treatment":"b"},
		"confidenceScore":1.4}`}
	svc := NewService(fm)
	_, err := svc.DiagnosePlant(context.Background(), "", "spots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestAnswerQuery(t *testing.T) {
	fm := &fakeModel{response: `{"response":"Use drip irrigation in the dry season."}`}
	svc := NewService(fm)

	got, err := svc.AnswerQuery(context.Background(), "how often to water banana?", "Kochi, Kerala", "")
	require.NoError(t, err)
	assert.Contains(t, got.Response, "drip")
	assert.Contains(t, fm.lastReq.Prompt, "Kochi, Kerala")
}

func TestAnswerQuery_RequiresLocation(t *testing.T) {
	svc := NewService(&fakeModel{})
	_, err := svc.AnswerQuery(context.Background(), "question", "", "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestWeatherAlerts(t *testing.T) {
	fm := &fakeModel{response: `{"alerts":[
		{"title":"Heat stress risk","description":"Irrigate in the evening.","severity":"high","type":"heat"}]}`}
	svc := NewService(fm)

	got, err := svc.WeatherAlerts(context.Background(), "Kochi", &weather.Current{
		TemperatureC: 39, Condition: "Clear", WindKmh: 5, Humidity: 40,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "heat", got[0].Type)
	assert.Contains(t, fm.lastReq.Prompt, "39.0")
}

func TestWeatherAlerts_EmptyListIsValid(t *testing.T) {
	fm := &fakeModel{response: `{"alerts":[]}`}
	svc := NewService(fm)

	got, err := svc.WeatherAlerts(context.Background(), "Kochi", &weather.Current{TemperatureC: 26, Condition: "Partly cloudy"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLogSuggestion(t *testing.T) {
	fm := &fakeModel{response: `{"suggestion":"Apply pre-emergence herbicide within 3 days."}`}
	svc := NewService(fm)

	got, err := svc.LogSuggestion(context.Background(), "Sowing", "Rice", time.Now(), "first plot")
	require.NoError(t, err)
	assert.Contains(t, got, "herbicide")
	assert.Contains(t, fm.lastReq.Prompt, "Rice")
	assert.Contains(t, fm.lastReq.Prompt, "first plot")
}

func TestLocalNews(t *testing.T) {
	fm := &fakeModel{response: `{"articles":[{
		"title":{"en":"New subsidy","hi":"नई सब्सिडी","ml":"പുതിയ സബ്സിഡി"},
		"summary":{"en":"s","hi":"स","ml":"സ"},
		"source":"The Hindu","url":"https://example.org/a","publishedAt":"2026-08-28"}]}`}
	svc := NewService(fm)

	got, err := svc.LocalNews(context.Background(), "Kerala")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New subsidy", got[0].Title.EN)
	assert.Equal(t, "The Hindu", got[0].Source)
}

func TestLocalNews_RejectsPartialArticle(t *testing.T) {
	fm := &fakeModel{response: `{"articles":[{
		"title":{"en":"only english"},
		"summary":{"en":"s","hi":"स","ml":"സ"},
		"source":"x","url":"u","publishedAt":"2026-08-28"}]}`}
	svc := NewService(fm)
	_, err := svc.LocalNews(context.Background(), "Kerala")
	require.Error(t, err)
}

func TestGrowthPlan(t *testing.T) {
	fm := &fakeModel{response: `{"plan":[{
		"recommendation":"Apply NPK 19:19:19 at 5kg/acre",
		"priority":"High",
		"reasoning":"No fertilization logged since sowing.",
		"suggestedActionDate":"2026-09-02"}]}`}
	svc := NewService(fm)

	logs := []*model.FarmLogEntry{
		{Activity: "Sowing", Crop: "Rice", Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Notes: "paddy field A"},
		{Activity: "Weeding", Crop: "Rice", Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
	}
	got, err := svc.GrowthPlan(context.Background(), logs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "High", got[0].Priority)
	assert.Contains(t, fm.lastReq.Prompt, "paddy field A")
	assert.Contains(t, fm.lastReq.Prompt, "2026-08-20")
}

func TestGrowthPlan_RequiresLogs(t *testing.T) {
	svc := NewService(&fakeModel{})
	_, err := svc.GrowthPlan(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSpeechToText(t *testing.T) {
	fm := &fakeModel{response: `{"text":"my tomato leaves are curling"}`}
	svc := NewService(fm)

	got, err := svc.SpeechToText(context.Background(), "data:audio/webm;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "my tomato leaves are curling", got)
	require.Len(t, fm.lastReq.Media, 1)
	assert.Equal(t, "audio/webm", fm.lastReq.Media[0].MIMEType)
}

func TestSpeechToText_BadDataURI(t *testing.T) {
	svc := NewService(&fakeModel{})
	_, err := svc.SpeechToText(context.Background(), "not-a-data-uri")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestFlows_PropagateModelErrors(t *testing.T) {
	fm := &fakeModel{err: errors.New("quota exceeded")}
	svc := NewService(fm)

	_, err := svc.TranslateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
