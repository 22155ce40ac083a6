package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freytube/freytube/internal/logger"
)

type recordingService struct {
	log      *[]string
	startErr error
	name     string
	deps     []string
}

func (s *recordingService) Name() string          { return s.name }
func (s *recordingService) Dependencies() []string { return s.deps }

func (s *recordingService) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	*s.log = append(*s.log, "start:"+s.name)
	return nil
}

func (s *recordingService) Stop(context.Context) error {
	*s.log = append(*s.log, "stop:"+s.name)
	return nil
}

func TestServiceManager_StartsDependenciesFirst(t *testing.T) {
	var events []string
	sm := NewServiceManager(logger.NewDiscard())
	require.NoError(t, sm.Register(&recordingService{name: NameHTTP, deps: []string{NameStore, NameDownloads}, log: &events}))
	require.NoError(t, sm.Register(&recordingService{name: NameDownloads, deps: []string{NameStore}, log: &events}))
	require.NoError(t, sm.Register(&recordingService{name: NameStore, log: &events}))

	require.NoError(t, sm.Start(context.Background()))
	require.NoError(t, sm.Stop(context.Background()))

	assert.Equal(t, []string{
		"start:store", "start:downloads", "start:http",
		"stop:http", "stop:downloads", "stop:store",
	}, events)
}

func TestServiceManager_RollsBackOnFailure(t *testing.T) {
	var events []string
	sm := NewServiceManager(logger.NewDiscard())
	require.NoError(t, sm.Register(&recordingService{name: NameStore, log: &events}))
	require.NoError(t, sm.Register(&recordingService{name: NameDiscovery, log: &events}))
	require.NoError(t, sm.Register(&recordingService{
		name:     NameHTTP,
		deps:     []string{NameStore, NameDiscovery},
		startErr: errors.New("port in use"),
		log:      &events,
	}))

	err := sm.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port in use")
	assert.Equal(t, []string{"start:discovery", "start:store", "stop:store", "stop:discovery"}, events)
}

func TestServiceManager_RejectsBadGraphs(t *testing.T) {
	var events []string

	missing := NewServiceManager(logger.NewDiscard())
	require.NoError(t, missing.Register(&recordingService{name: NameHTTP, deps: []string{NameStore}, log: &events}))
	assert.Error(t, missing.Start(context.Background()))

	circular := NewServiceManager(logger.NewDiscard())
	require.NoError(t, circular.Register(&recordingService{name: "a", deps: []string{"b"}, log: &events}))
	require.NoError(t, circular.Register(&recordingService{name: "b", deps: []string{"a"}, log: &events}))
	assert.Error(t, circular.Start(context.Background()))

	dup := NewServiceManager(logger.NewDiscard())
	require.NoError(t, dup.Register(&recordingService{name: "a", log: &events}))
	assert.Error(t, dup.Register(&recordingService{name: "a", log: &events}))

	assert.Empty(t, events)
}
