package lang

var CacheLen = cacheLen
