package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, Type:$id
func StoreRedis[T any](obj any, id string) error {
	key := GetTypeName[T]() + ":" + id
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id string) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + id
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id string) error {
	key := GetTypeName[T]() + ":" + id
	return config.RemoveRedisKey(key)
}

// store a per-scope list, TypeList:$tenant:$branch
func StoreRedisList[T any](obj any, tenantId string, branchId string) error {
	key := GetTypeName[T]() + "List:" + tenantId + ":" + branchId
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// retrieve a per-scope list.
func RetrieveRedisList[T any](tenantId string, branchId string) ([]*T, error) {
	key := GetTypeName[T]() + "List:" + tenantId + ":" + branchId
	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$tenant:$branch
func RemoveRedisList[T any](tenantId string, branchId string) error {
	key := GetTypeName[T]() + "List:" + tenantId + ":" + branchId
	return config.RemoveRedisKey(key)
}
