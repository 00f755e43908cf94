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

	"beamer/internal/api"
	"beamer/internal/daemon"
	"beamer/internal/logging"
	"beamer/internal/logs"
	"beamer/internal/mapping"
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
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc")}
	if err := rpcServer.RegisterName("Beamer", srv); err != nil {
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
				s.logger.Warn("accept failed", logging.Error(err))
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
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
}

func parseKind(kind string) (mapping.EntityKind, error) {
	switch k := mapping.EntityKind(kind); k {
	case mapping.KindContext, mapping.KindSurface, mapping.KindMapping:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockPath
	resp.SocketPath = status.SocketPath
	resp.CachePath = status.CachePath
	resp.AssetCacheDir = status.AssetCacheDir
	resp.RelayEnabled = status.RelayEnabled
	resp.RelayURL = status.RelayURL
	resp.Engine = status.Engine
	return nil
}

func (s *service) List(_ ListRequest, resp *ListResponse) error {
	snap, err := s.daemon.Snapshot()
	if err != nil {
		return err
	}
	resp.Snapshot = snap
	return nil
}

func (s *service) Create(req CreateRequest, resp *CreateResponse) error {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return err
	}
	id, err := s.daemon.CreateEntity(kind, req.Payload)
	if err != nil {
		return err
	}
	s.logger.Info("entity created via IPC",
		logging.String("kind", req.Kind),
		logging.String("id", id))
	resp.ID = id
	return nil
}

func (s *service) Update(req UpdateRequest, resp *UpdateResponse) error {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return err
	}
	updated, err := s.daemon.UpdateEntity(kind, req.ID, req.Payload)
	if err != nil {
		return err
	}
	resp.Updated = updated
	return nil
}

func (s *service) Delete(req DeleteRequest, resp *DeleteResponse) error {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return err
	}
	deleted, err := s.daemon.DeleteEntity(kind, req.ID)
	if err != nil {
		return err
	}
	if deleted {
		s.logger.Info("entity deleted via IPC",
			logging.String("kind", req.Kind),
			logging.String("id", req.ID))
	}
	resp.Deleted = deleted
	return nil
}

func (s *service) Action(req ActionRequest, resp *ActionResponse) error {
	handled, err := s.daemon.InvokeAction(req.Target, req.Action, req.Payload)
	if err != nil {
		return err
	}
	resp.Handled = handled
	return nil
}

func (s *service) Coverage(req CoverageRequest, _ *CoverageResponse) error {
	return s.daemon.SetCoveragePreview(req.Enabled)
}

func (s *service) Replay(req ReplayRequest, _ *ReplayResponse) error {
	if req.Path == "" {
		return errors.New("replay path required")
	}
	return s.daemon.Replay(req.Path)
}

func (s *service) AssetList(_ AssetListRequest, resp *AssetListResponse) error {
	entries, err := s.daemon.AssetEntries()
	if err != nil {
		return err
	}
	resp.Assets = make([]api.AssetView, 0, len(entries))
	for _, entry := range entries {
		resp.Assets = append(resp.Assets, api.FromAssetEntry(entry))
	}
	return nil
}

func (s *service) AssetRemove(req AssetRemoveRequest, _ *AssetRemoveResponse) error {
	if req.ID == "" {
		return errors.New("asset id required")
	}
	return s.daemon.RemoveAsset(req.ID)
}

func (s *service) AssetClear(_ AssetClearRequest, _ *AssetClearResponse) error {
	return s.daemon.ClearAssets()
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	opts := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   time.Duration(req.WaitMillis) * time.Millisecond,
	}
	result, err := s.daemon.TailLogs(context.Background(), opts)
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
