package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumsg_server/internal/model"
	"edumsg_server/pkg/errorx"
)

// fakeConvRepo 只实现分发层用到的 FindByUuid
type fakeConvRepo struct {
	conversations map[string]*model.Conversation
}

func (f *fakeConvRepo) FindByUuid(uuid string) (*model.Conversation, error) {
	if c, ok := f.conversations[uuid]; ok {
		return c, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}

func (f *fakeConvRepo) FindByPair(lowId, highId string) (*model.Conversation, error) {
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}

func (f *fakeConvRepo) FindByParticipant(userId string) ([]model.Conversation, error) {
	return nil, nil
}

func (f *fakeConvRepo) Create(conversation *model.Conversation) error { return nil }

func (f *fakeConvRepo) UpdateLastMessage(uuid string, preview string, at time.Time) error {
	return nil
}

func (f *fakeConvRepo) UpdateFlags(uuid string, updates map[string]interface{}) error { return nil }

func testFanout() *fanout {
	return newFanout(&fakeConvRepo{
		conversations: map[string]*model.Conversation{
			"C001": {
				Uuid:              "C001",
				ParticipantLowId:  "U001",
				ParticipantHighId: "U002",
			},
		},
	})
}

func TestResolveTargetsExplicit(t *testing.T) {
	f := testFanout()
	targets := f.resolveTargets(&Event{
		Type:    EventNewMessage,
		Targets: []string{"U001", "U002"},
	})
	assert.Equal(t, []string{"U001", "U002"}, targets)
}

func TestResolveTargetsFromConversation(t *testing.T) {
	f := testFanout()
	targets := f.resolveTargets(&Event{
		Type:           EventTyping,
		ConversationId: "C001",
		SenderId:       "U001",
	})
	assert.ElementsMatch(t, []string{"U001", "U002"}, targets)
}

func TestResolveTargetsRejectsNonParticipant(t *testing.T) {
	f := testFanout()
	// WS 入站事件不可信：触发者不是会话成员时丢弃
	targets := f.resolveTargets(&Event{
		Type:           EventTyping,
		ConversationId: "C001",
		SenderId:       "U999",
	})
	assert.Nil(t, targets)

	targets = f.resolveTargets(&Event{
		Type:           EventTyping,
		ConversationId: "C404",
		SenderId:       "U001",
	})
	assert.Nil(t, targets)
}

func TestDeliverPushesToOnlineClients(t *testing.T) {
	f := testFanout()
	recipient := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 4)}
	f.register(recipient)
	defer f.unregister(recipient)

	f.deliver(&Event{
		Type:           EventNewMessage,
		ConversationId: "C001",
		SenderId:       "U001",
		MessageId:      42,
		Targets:        []string{"U001", "U002"},
	})

	select {
	case data := <-recipient.SendBack:
		event, err := DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, EventNewMessage, event.Type)
		assert.Equal(t, int64(42), event.MessageId)
	default:
		t.Fatal("recipient did not receive the event")
	}
}

func TestDeliverTypingSkipsSender(t *testing.T) {
	f := testFanout()
	sender := &UserConn{Uuid: "U001", SendBack: make(chan []byte, 4)}
	recipient := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 4)}
	f.register(sender)
	f.register(recipient)
	defer f.unregister(sender)
	defer f.unregister(recipient)

	f.deliver(&Event{
		Type:           EventTyping,
		ConversationId: "C001",
		SenderId:       "U001",
	})

	assert.Len(t, recipient.SendBack, 1)
	// 自己不会收到自己的输入提示
	assert.Len(t, sender.SendBack, 0)
}

func TestTypingAutoExpiry(t *testing.T) {
	f := testFanout()
	recipient := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 8)}
	f.register(recipient)
	defer f.unregister(recipient)

	f.deliver(&Event{
		Type:           EventTyping,
		ConversationId: "C001",
		SenderId:       "U001",
	})

	// 先收到 typing
	data := <-recipient.SendBack
	event, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventTyping, event.Type)

	// TTL 过后自动收到 stopped
	select {
	case data = <-recipient.SendBack:
		event, err = DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, EventTypingStopped, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("typing.stopped was not emitted after TTL")
	}
}

func TestTypingStoppedSkipsSender(t *testing.T) {
	f := testFanout()
	sender := &UserConn{Uuid: "U001", SendBack: make(chan []byte, 8)}
	recipient := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 8)}
	f.register(sender)
	f.register(recipient)
	defer f.unregister(sender)
	defer f.unregister(recipient)

	f.deliver(&Event{
		Type:           EventTyping,
		ConversationId: "C001",
		SenderId:       "U001",
	})

	// 对方先收到 typing，TTL 过后收到 stopped
	<-recipient.SendBack
	select {
	case data := <-recipient.SendBack:
		event, err := DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, EventTypingStopped, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("typing.stopped was not emitted after TTL")
	}

	// 过期广播和实时提示一样不会发给触发者本人
	assert.Len(t, sender.SendBack, 0)
}

func TestUnregisterClosesSendBack(t *testing.T) {
	f := testFanout()
	client := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 1)}
	f.register(client)
	f.unregister(client)

	// 下发通道随注销关闭，Write 协程会随之退出
	_, open := <-client.SendBack
	assert.False(t, open)

	// 注销后的投递安全丢弃，不会写到已关闭的通道上
	assert.False(t, client.trySend([]byte("late")))
	f.push("U002", []byte("late"))

	// 重复注销是空操作（读协程退出与主动登出可能各触发一次）
	f.unregister(client)
}

func TestConcurrentDeliverAndUnregister(t *testing.T) {
	f := testFanout()
	client := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 1)}
	f.register(client)

	// 注销与投递并发进行不会触发向已关闭通道的发送
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				f.push("U002", []byte("event"))
			}
		}()
	}
	f.unregister(client)
	wg.Wait()
}

func TestPushDropsWhenBufferFull(t *testing.T) {
	f := testFanout()
	recipient := &UserConn{Uuid: "U002", SendBack: make(chan []byte, 1)}
	f.register(recipient)
	defer f.unregister(recipient)

	// 第二次推送在缓冲满时丢弃而不是阻塞
	f.push("U002", []byte("one"))
	done := make(chan struct{})
	go func() {
		f.push("U002", []byte("two"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a full buffer")
	}
	assert.Len(t, recipient.SendBack, 1)
}
