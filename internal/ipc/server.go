package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"storycast/internal/api"
	"storycast/internal/daemon"
	"storycast/internal/logging"
	"storycast/internal/logs"
	"storycast/internal/queue"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Storycast", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun storycast stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	workflowStatus := api.FromStatusSummary(status.Workflow)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.APIAddress = s.daemon.APIAddress()
	resp.QueueCounts = workflowStatus.QueueCounts
	resp.LastError = workflowStatus.LastError
	resp.LastJob = workflowStatus.LastJob
	resp.StageHealth = workflowStatus.StageHealth
	return nil
}

func (s *service) QueueAdd(req QueueAddRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().Enqueue(s.ctx, api.EnqueueRequest{
		Prompt:          req.Prompt,
		AssistantRef:    req.AssistantRef,
		VoiceRef:        req.VoiceRef,
		TargetDuration:  req.TargetDuration,
		TargetWordCount: req.TargetWordCount,
	})
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("job queued via IPC",
		logging.String(logging.FieldEventType, "queue_add"),
		logging.Int64(logging.FieldJobID, job.ID))
	return nil
}

func (s *service) QueueAddVideo(req QueueAddVideoRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().EnqueueVideo(s.ctx, req.SourceJobID, req.ForceRegenerate)
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("video job queued via IPC",
		logging.String(logging.FieldEventType, "queue_add_video"),
		logging.Int64(logging.FieldJobID, job.ID))
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	jobs, err := s.daemon.Queue().List(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Jobs = jobs
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *JobResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid job id %d", req.ID)
	}
	job, err := s.daemon.Queue().Describe(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %d not found", req.ID)
	}
	resp.Job = *job
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().Retry(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("job retried via IPC",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64(logging.FieldJobID, req.ID))
	return nil
}

func (s *service) QueueCancel(req QueueCancelRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().Cancel(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("job cancelled via IPC",
		logging.String(logging.FieldEventType, "queue_cancel"),
		logging.Int64(logging.FieldJobID, req.ID))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if err := s.daemon.Queue().Remove(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	s.log().Info("job removed via IPC",
		logging.String(logging.FieldEventType, "queue_remove"),
		logging.Int64(logging.FieldJobID, req.ID))
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	var (
		removed int64
		err     error
	)
	if req.CompletedOnly {
		removed, err = s.daemon.Queue().ClearCompleted(s.ctx)
	} else {
		removed, err = s.daemon.Queue().Clear(s.ctx)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared via IPC",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) ReviewConfirm(req ReviewConfirmRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().ConfirmReview(s.ctx, req.ID, req.EditedScript)
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("review confirmed via IPC",
		logging.String(logging.FieldEventType, "review_confirm"),
		logging.Int64(logging.FieldJobID, req.ID))
	return nil
}

func (s *service) ReviewReject(req ReviewRejectRequest, resp *JobResponse) error {
	job, err := s.daemon.Queue().AbandonReview(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = *job
	s.log().Info("review rejected via IPC",
		logging.String(logging.FieldEventType, "review_reject"),
		logging.Int64(logging.FieldJobID, req.ID))
	return nil
}

func (s *service) ForceDispatch(_ ForceDispatchRequest, resp *ForceDispatchResponse) error {
	s.daemon.Queue().ForceDispatch()
	resp.Triggered = true
	s.log().Info("dispatch forced via IPC",
		logging.String(logging.FieldEventType, "force_dispatch"))
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait > 10*time.Second {
		wait = 10 * time.Second
	}
	result, err := logs.Tail(s.ctx, s.daemon.LogPath(), logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
