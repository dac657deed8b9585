package fix

// Standard header, trailer and common order tags.
const (
	TagAccount      = 1
	TagBeginString  = 8
	TagBodyLength   = 9
	TagCheckSum     = 10
	TagClOrdID      = 11
	TagMsgSeqNum    = 34
	TagMsgType      = 35
	TagOrderQty     = 38
	TagOrdType      = 40
	TagPrice        = 44
	TagSenderCompID = 49
	TagSendingTime  = 52
	TagSide         = 54
	TagSymbol       = 55
	TagTargetCompID = 56
	TagText         = 58
	TagTimeInForce  = 59
	TagTransactTime = 60
)

var tagNames = map[int]string{
	TagAccount:      "Account",
	TagBeginString:  "BeginString",
	TagBodyLength:   "BodyLength",
	TagCheckSum:     "CheckSum",
	TagClOrdID:      "ClOrdID",
	TagMsgSeqNum:    "MsgSeqNum",
	TagMsgType:      "MsgType",
	TagOrderQty:     "OrderQty",
	TagOrdType:      "OrdType",
	TagPrice:        "Price",
	TagSenderCompID: "SenderCompID",
	TagSendingTime:  "SendingTime",
	TagSide:         "Side",
	TagSymbol:       "Symbol",
	TagTargetCompID: "TargetCompID",
	TagText:         "Text",
	TagTimeInForce:  "TimeInForce",
	TagTransactTime: "TransactTime",
}

// TagName returns a display label for tag, or "" for tags outside the
// table. Unknown tags are legal.
func TagName(tag int) string {
	return tagNames[tag]
}
