// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package voice_api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	internal_store "github.com/rapidaai/voicestudio/api/voice-api/internal/store"
	"github.com/rapidaai/voicestudio/config"
	synthesis_client "github.com/rapidaai/voicestudio/pkg/clients/synthesis"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testConnector struct {
	db *gorm.DB
}

func (c *testConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *testConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type fakeAssets struct {
	uploads int
}

func (f *fakeAssets) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty blob")
	}
	f.uploads++
	return fmt.Sprintf("%s/upload-%d.wav", folder, f.uploads), nil
}

func (f *fakeAssets) SignedURL(ctx context.Context, path string) (string, error) {
	return "https://signed.example/" + path, nil
}

type fakeSynthesis struct {
	result *synthesis_client.SynthesizeResult
	err    error
	last   *synthesis_client.SynthesizeRequest
}

func (f *fakeSynthesis) Synthesize(ctx context.Context, request *synthesis_client.SynthesizeRequest) (*synthesis_client.SynthesizeResult, error) {
	f.last = request
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	log, err := commons.NewApplicationLogger(
		commons.Name("test-voice-api"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)
	return log
}

func newTestApi(t *testing.T, synth *fakeSynthesis) (*gin.Engine, *VoiceApi) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	postgres := &testConnector{db: db}
	log := newTestLogger(t)

	vApi := &VoiceApi{
		cfg:        &config.AppConfig{Name: "test", Version: "0.0.1"},
		logger:     log,
		postgres:   postgres,
		voiceStore: internal_store.NewVoiceStore(postgres, log),
		sessions:   internal_store.NewSessionStore(postgres, log),
		assets:     &fakeAssets{},
		synthesis:  synth,
	}
	require.NoError(t, vApi.Migrate(context.Background()))

	engine := gin.New()
	engine.POST("/v1/voices/", vApi.CreateVoice)
	engine.GET("/v1/voices/", vApi.ListVoices)
	engine.GET("/v1/voices/:voiceId/", vApi.GetVoice)
	engine.PATCH("/v1/voices/:voiceId/", vApi.UpdateVoice)
	engine.DELETE("/v1/voices/:voiceId/", vApi.DeleteVoice)
	engine.POST("/v1/voices/:voiceId/save/", vApi.ToggleSaveVoice)
	engine.GET("/v1/saved-voices/", vApi.ListSavedVoices)
	engine.POST("/v1/sessions/", vApi.CreateSession)
	engine.GET("/v1/sessions/", vApi.ListSessions)
	engine.GET("/v1/sessions/:sessionId/", vApi.GetSession)
	engine.DELETE("/v1/sessions/:sessionId/", vApi.DeleteSession)
	engine.POST("/v1/sessions/:sessionId/clips/", vApi.GenerateClip)
	return engine, vApi
}

func doRequest(engine *gin.Engine, method, path string, userId string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if userId != "" {
		req.Header.Set("X-User-Id", userId)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func doJSON(engine *gin.Engine, method, path, userId string, payload interface{}) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	if payload != nil {
		json.NewEncoder(body).Encode(payload)
	}
	return doRequest(engine, method, path, userId, body, "application/json")
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func uploadVoice(t *testing.T, engine *gin.Engine, userId, name, visibility string) map[string]interface{} {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "clip.wav")
	require.NoError(t, err)
	part.Write([]byte("RIFF-fake-wave-bytes"))
	writer.WriteField("name", name)
	writer.WriteField("visibility", visibility)
	writer.WriteField("language", "en")
	writer.WriteField("durationSeconds", "3.4")
	require.NoError(t, writer.Close())

	recorder := doRequest(engine, http.MethodPost, "/v1/voices/", userId, body, writer.FormDataContentType())
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decodeData(t, recorder)
}

func TestCreateVoiceStoresAndSigns(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})

	data := uploadVoice(t, engine, "7", "My Narrator", "public")
	assert.Equal(t, "My Narrator", data["name"])
	assert.Equal(t, 3.4, data["durationSeconds"])
	assert.Equal(t, "public", data["visibility"])
	assert.Equal(t, float64(7), data["ownerId"])
	url, _ := data["audioUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "https://signed.example/voices/"))
}

func TestCreateVoiceRejectsNonFiniteDuration(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})

	// strconv.ParseFloat accepts these without error, so they need an
	// explicit finiteness check; a stored NaN would break every later read
	// of the row at JSON encoding time.
	for _, raw := range []string{"NaN", "Inf", "+Inf", "-Inf", "-1"} {
		t.Run(raw, func(t *testing.T) {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			part, err := writer.CreateFormFile("audio", "clip.wav")
			require.NoError(t, err)
			part.Write([]byte("RIFF-fake-wave-bytes"))
			writer.WriteField("name", "Broken Duration")
			writer.WriteField("durationSeconds", raw)
			require.NoError(t, writer.Close())

			recorder := doRequest(engine, http.MethodPost, "/v1/voices/", "7", body, writer.FormDataContentType())
			assert.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())
		})
	}
}

func TestCreateVoiceRequiresAuth(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	recorder := doRequest(engine, http.MethodPost, "/v1/voices/", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestPrivateVoiceHiddenFromOthers(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	data := uploadVoice(t, engine, "1", "Secret", "private")
	voiceId := fmt.Sprintf("%.0f", data["id"].(float64))

	recorder := doRequest(engine, http.MethodGet, "/v1/voices/"+voiceId+"/", "2", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doRequest(engine, http.MethodGet, "/v1/voices/"+voiceId+"/", "1", nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestUpdateVoiceOwnershipEnforced(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	data := uploadVoice(t, engine, "1", "Narrator", "public")
	voiceId := fmt.Sprintf("%.0f", data["id"].(float64))

	recorder := doJSON(engine, http.MethodPatch, "/v1/voices/"+voiceId+"/", "2", gin.H{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doJSON(engine, http.MethodPatch, "/v1/voices/"+voiceId+"/", "1", gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Renamed", decodeData(t, recorder)["name"])
}

func TestToggleSaveFlips(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	data := uploadVoice(t, engine, "1", "Community", "public")
	voiceId := fmt.Sprintf("%.0f", data["id"].(float64))

	recorder := doRequest(engine, http.MethodPost, "/v1/voices/"+voiceId+"/save/", "2", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, decodeData(t, recorder)["saved"])

	recorder = doRequest(engine, http.MethodPost, "/v1/voices/"+voiceId+"/save/", "2", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, decodeData(t, recorder)["saved"])
}

func TestListVoicesEnvelope(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	uploadVoice(t, engine, "1", "Alpha", "public")
	uploadVoice(t, engine, "1", "Beta", "public")

	recorder := doRequest(engine, http.MethodGet, "/v1/voices/?limit=10", "2", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Success    bool                     `json:"success"`
		Data       []map[string]interface{} `json:"data"`
		NextCursor string                   `json:"nextCursor"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Len(t, envelope.Data, 2)
	// Page not full, nothing more to fetch.
	assert.Empty(t, envelope.NextCursor)
}

func createSession(t *testing.T, engine *gin.Engine, userId string, voiceId float64) string {
	t.Helper()
	recorder := doJSON(engine, http.MethodPost, "/v1/sessions/", userId, gin.H{"voiceId": uint64(voiceId), "title": "Reading"})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decodeData(t, recorder)["sessionId"].(string)
}

func TestGenerateClipCompletes(t *testing.T) {
	synth := &fakeSynthesis{result: &synthesis_client.SynthesizeResult{
		Audio:           []byte("mp3-bytes"),
		ContentType:     "audio/mpeg",
		DurationSeconds: 2.1,
	}}
	engine, _ := newTestApi(t, synth)
	voice := uploadVoice(t, engine, "1", "Narrator", "private")
	sessionId := createSession(t, engine, "1", voice["id"].(float64))

	recorder := doJSON(engine, http.MethodPost, "/v1/sessions/"+sessionId+"/clips/", "1",
		gin.H{"text": "Hello world", "emotion": "cheerful"})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	clip := decodeData(t, recorder)
	assert.Equal(t, "completed", clip["status"])
	assert.Equal(t, 2.1, clip["durationSeconds"])
	assert.Contains(t, clip["audioUrl"], "https://signed.example/clips/")

	// The synthesis backend got the reference voice, not the raw path.
	require.NotNil(t, synth.last)
	assert.Equal(t, "cheerful", synth.last.Emotion)
	assert.True(t, strings.HasPrefix(synth.last.VoiceUrl, "https://signed.example/"))
}

func TestGenerateClipFailureMarksClipFailed(t *testing.T) {
	synth := &fakeSynthesis{err: errors.New("backend down")}
	engine, _ := newTestApi(t, synth)
	voice := uploadVoice(t, engine, "1", "Narrator", "private")
	sessionId := createSession(t, engine, "1", voice["id"].(float64))

	recorder := doJSON(engine, http.MethodPost, "/v1/sessions/"+sessionId+"/clips/", "1",
		gin.H{"text": "Hello world"})
	assert.Equal(t, http.StatusBadGateway, recorder.Code)

	recorder = doRequest(engine, http.MethodGet, "/v1/sessions/"+sessionId+"/", "1", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	session := decodeData(t, recorder)
	clips := session["clips"].([]interface{})
	require.Len(t, clips, 1)
	assert.Equal(t, "failed", clips[0].(map[string]interface{})["status"])
}

func TestSessionNotVisibleToOthers(t *testing.T) {
	engine, _ := newTestApi(t, &fakeSynthesis{})
	voice := uploadVoice(t, engine, "1", "Narrator", "private")
	sessionId := createSession(t, engine, "1", voice["id"].(float64))

	recorder := doRequest(engine, http.MethodGet, "/v1/sessions/"+sessionId+"/", "2", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doRequest(engine, http.MethodDelete, "/v1/sessions/"+sessionId+"/", "2", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doRequest(engine, http.MethodDelete, "/v1/sessions/"+sessionId+"/", "1", nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}
