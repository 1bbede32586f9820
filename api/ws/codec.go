package ws

import (
	"github.com/bytedance/sonic"

	"yqhp/fractal-engine/pkg/types"
)

// encodeMessage wraps payload in an envelope of the given type.
func encodeMessage(msgType types.WSMessageType, payload any) ([]byte, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = sonic.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return sonic.Marshal(&types.WSMessage{Type: msgType, Data: data})
}

func decodeMessage(raw []byte) (*types.WSMessage, error) {
	var msg types.WSMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func decodePayload[T any](msg *types.WSMessage) (T, error) {
	var v T
	err := sonic.Unmarshal(msg.Data, &v)
	return v, err
}

// encodeAssignment turns an assignment into its wire frame.
func encodeAssignment(a types.Assignment) ([]byte, error) {
	if a.IsTerminate() {
		return encodeMessage(types.WSMsgTerminate, nil)
	}
	return encodeMessage(types.WSMsgWork, a.Work)
}
