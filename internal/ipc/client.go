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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Storycast.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Storycast.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Storycast.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueAdd enqueues a podcast job.
func (c *Client) QueueAdd(req QueueAddRequest) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.QueueAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueAddVideo enqueues a video assembly job.
func (c *Client) QueueAddVideo(req QueueAddVideoRequest) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.QueueAddVideo", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns jobs optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	req := QueueListRequest{Statuses: statuses}
	if err := c.client.Call("Storycast.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single job.
func (c *Client) QueueDescribe(id int64) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry requeues an errored job.
func (c *Client) QueueRetry(id int64) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.QueueRetry", QueueRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueCancel cancels a job.
func (c *Client) QueueCancel(id int64) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.QueueCancel", QueueCancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove removes a job from the queue.
func (c *Client) QueueRemove(id int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Storycast.QueueRemove", QueueRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes jobs in bulk.
func (c *Client) QueueClear(completedOnly bool) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	req := QueueClearRequest{CompletedOnly: completedOnly}
	if err := c.client.Call("Storycast.QueueClear", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReviewConfirm approves a job at the review checkpoint.
func (c *Client) ReviewConfirm(id int64, editedScript string) (*JobResponse, error) {
	var resp JobResponse
	req := ReviewConfirmRequest{ID: id, EditedScript: editedScript}
	if err := c.client.Call("Storycast.ReviewConfirm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReviewReject abandons a job at the review checkpoint.
func (c *Client) ReviewReject(id int64) (*JobResponse, error) {
	var resp JobResponse
	if err := c.client.Call("Storycast.ReviewReject", ReviewRejectRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForceDispatch wakes the scheduler immediately.
func (c *Client) ForceDispatch() (*ForceDispatchResponse, error) {
	var resp ForceDispatchResponse
	if err := c.client.Call("Storycast.ForceDispatch", ForceDispatchRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Storycast.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Storycast.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
