package utils

import (
	"bytes"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// AttributeEquals compares two scalar attribute values. Numbers compare by
// value, so "5" equals "5.0".
func AttributeEquals(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		x, errA := strconv.ParseFloat(av.Value, 64)
		y, errB := strconv.ParseFloat(bv.Value, 64)
		if errA != nil || errB != nil {
			return av.Value == bv.Value
		}
		return x == y
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberB:
		bv, ok := b.(*types.AttributeValueMemberB)
		return ok && bytes.Equal(av.Value, bv.Value)
	case *types.AttributeValueMemberNULL:
		_, ok := b.(*types.AttributeValueMemberNULL)
		return ok
	}
	return false
}

// AttributeContains mirrors DynamoDB's contains(): list or set membership,
// or substring for strings.
func AttributeContains(attr, v types.AttributeValue) bool {
	switch av := attr.(type) {
	case *types.AttributeValueMemberL:
		for _, item := range av.Value {
			if AttributeEquals(item, v) {
				return true
			}
		}
	case *types.AttributeValueMemberSS:
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			for _, item := range av.Value {
				if item == s.Value {
					return true
				}
			}
		}
	case *types.AttributeValueMemberS:
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			return bytes.Contains([]byte(av.Value), []byte(s.Value))
		}
	}
	return false
}
