package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves daemon and engine status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Beamer.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves the entity snapshot.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Beamer.List", ListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create creates one entity and returns its id.
func (c *Client) Create(kind string, payload map[string]any) (*CreateResponse, error) {
	var resp CreateResponse
	req := CreateRequest{Kind: kind, Payload: payload}
	if err := c.client.Call("Beamer.Create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update merges a partial payload into one entity.
func (c *Client) Update(kind, id string, payload map[string]any) (*UpdateResponse, error) {
	var resp UpdateResponse
	req := UpdateRequest{Kind: kind, ID: id, Payload: payload}
	if err := c.client.Call("Beamer.Update", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes one entity.
func (c *Client) Delete(kind, id string) (*DeleteResponse, error) {
	var resp DeleteResponse
	req := DeleteRequest{Kind: kind, ID: id}
	if err := c.client.Call("Beamer.Delete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Action invokes a registered action on an entity target.
func (c *Client) Action(target, action string, payload map[string]any) (*ActionResponse, error) {
	var resp ActionResponse
	req := ActionRequest{Target: target, Action: action, Payload: payload}
	if err := c.client.Call("Beamer.Action", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Coverage toggles the coverage-debug preview.
func (c *Client) Coverage(enabled bool) error {
	var resp CoverageResponse
	return c.client.Call("Beamer.Coverage", CoverageRequest{Enabled: enabled}, &resp)
}

// Replay feeds a recorded event file into the engine.
func (c *Client) Replay(path string) error {
	var resp ReplayResponse
	return c.client.Call("Beamer.Replay", ReplayRequest{Path: path}, &resp)
}

// AssetList retrieves the cached assets.
func (c *Client) AssetList() (*AssetListResponse, error) {
	var resp AssetListResponse
	if err := c.client.Call("Beamer.AssetList", AssetListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AssetRemove drops one asset from the cache.
func (c *Client) AssetRemove(id string) error {
	var resp AssetRemoveResponse
	return c.client.Call("Beamer.AssetRemove", AssetRemoveRequest{ID: id}, &resp)
}

// AssetClear empties the asset cache.
func (c *Client) AssetClear() error {
	var resp AssetClearResponse
	return c.client.Call("Beamer.AssetClear", AssetClearRequest{}, &resp)
}

// LogTail reads lines from the daemon log file.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Beamer.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
