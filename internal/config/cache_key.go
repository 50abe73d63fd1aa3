package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionBankKey returns the cache key for a language's raw question bank
func (r *CacheKeyStruct) QuestionBankKey(language string) string {
	return fmt.Sprintf("bank:%s:raw", language)
}

var CacheKey = NewCacheKeyStruct()
